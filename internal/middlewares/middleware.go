package middlewares

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/reelpoint/reelpoint-server/internal/auth"
	"github.com/reelpoint/reelpoint-server/internal/models"
	"github.com/reelpoint/reelpoint-server/internal/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

type MiddlewareHandler struct {
	Logger *log.Logger
	Auth   auth.TokenVerifier
}

func NewMiddlewareHandler(logger *log.Logger, verifier auth.TokenVerifier) *MiddlewareHandler {
	return &MiddlewareHandler{
		Logger: logger,
		Auth:   verifier,
	}
}

func (mh *MiddlewareHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		token := auth.TokenFromRequest(r)
		if token == "" {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "No authorization token provided"})
			return
		}

		user, err := mh.Auth.VerifyToken(token)
		if err != nil {
			mh.Logger.Println("Token verification error:", err)
			utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Invalid or expired token"})
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route to the given roles. It must run after
// Authenticate.
func (mh *MiddlewareHandler) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r)
			if !ok {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Not Authorized"})
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			mh.Logger.Printf("Role %q not allowed for %s %s", user.Role, r.Method, r.URL.Path)
			utils.WriteJSON(w, http.StatusForbidden, utils.Envelope{"message": "Access denied. Insufficient privileges."})
		})
	}
}

func (mh *MiddlewareHandler) Cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" && !isOriginAllowed(origin) {
			mh.Logger.Printf("Origin not allowed: %s", origin)
			utils.WriteJSON(w, http.StatusForbidden, utils.Envelope{"message": "Origin not allowed"})
			return
		}

		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		w.Header().Set("Access-Control-Expose-Headers", "Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		// Handle preflight requests (OPTIONS)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (mh *MiddlewareHandler) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mh.Logger.Printf("Request: %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (mh *MiddlewareHandler) Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

func isOriginAllowed(origin string) bool {
	allowed := os.Getenv("ALLOWED_ORIGINS")
	if allowed == "" {
		return true
	}
	for _, allowedOrigin := range strings.Split(allowed, ",") {
		if origin == allowedOrigin {
			return true
		}
	}
	return false
}

func GetUserFromContext(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	return user, ok
}
