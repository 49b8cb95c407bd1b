package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/reelpoint/reelpoint-server/internal/app"
	"github.com/reelpoint/reelpoint-server/internal/routes"
)

const (
	PORT string = ":8080"
)

func main() {

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	app, err := app.NewApplication()
	if err != nil {
		log.Fatal("Failed to start application:", err)
	}

	r := routes.SetupRoutes(app)

	server := &http.Server{
		Addr:        PORT,
		Handler:     r,
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
		// Streams and SSE run far longer than any fixed write timeout.
		WriteTimeout: 0,
	}

	app.Logger.Println("Server started on port", PORT)

	err = server.ListenAndServe()
	if err != nil {
		app.Logger.Fatal("Error starting server", err)
	}

}
