package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/reelpoint/reelpoint-server/internal/middlewares"
	"github.com/reelpoint/reelpoint-server/internal/notifier"
	"github.com/reelpoint/reelpoint-server/internal/utils"
)

const heartbeatInterval = 30 * time.Second

type EventsHandler struct {
	Notifier notifier.Notifier
	Logger   *log.Logger
}

func NewEventsHandler(n notifier.Notifier, logger *log.Logger) *EventsHandler {
	return &EventsHandler{
		Notifier: n,
		Logger:   logger,
	}
}

// HandlerEvents streams the caller's processing events over SSE until the
// client disconnects.
func (eh *EventsHandler) HandlerEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Not Authorized"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Streaming not supported"})
		return
	}

	events, cancel, err := eh.Notifier.Subscribe(r.Context(), user.ID)
	if err != nil {
		eh.Logger.Println("Error subscribing to events:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, event.Payload)
			flusher.Flush()
		}
	}
}
