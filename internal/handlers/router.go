package handlers

import (
	"net/http"
	"strings"
	"time"

	"lingoconnect-backend/internal/middleware"
	"lingoconnect-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// RouterDeps holds everything the HTTP layer is built from
type RouterDeps struct {
	FriendService  *services.FriendService
	UserService    *services.UserService
	AvatarService  *services.AvatarService
	Sessions       middleware.TokenValidator
	Hub            *services.WSHub
	Store          Pinger
	RateLimiter    *middleware.RateLimiter
	CookieName     string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter sets up routes and middleware
func NewRouter(deps RouterDeps) http.Handler {
	friendHandler := NewFriendHandler(deps.FriendService)
	userHandler := NewUserHandler(deps.UserService, deps.AvatarService)
	wsHandler := NewWebSocketHandler(deps.Hub, deps.AllowedOrigins)
	var online OnlineCounter
	if deps.Hub != nil {
		online = deps.Hub
	}
	healthHandler := NewHealthHandler(deps.Store, online)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware(deps.AllowedOrigins))

	r.Get("/healthz", healthHandler.Health)

	auth := middleware.AuthMiddleware(deps.Sessions, deps.CookieName)

	// Routes
	r.Route("/api/users", func(r chi.Router) {
		if deps.RequestTimeout > 0 {
			r.Use(chiMiddleware.Timeout(deps.RequestTimeout))
		}
		r.Use(auth)

		r.Get("/", userHandler.Recommend)
		r.Get("/friends", userHandler.ListFriends)
		r.Put("/profile", userHandler.UpdateProfile)
		r.Put("/push-token", userHandler.UpdatePushToken)
		r.Post("/profile-picture/upload-url", userHandler.ProfilePictureUploadURL)

		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.Middleware)
			}
			r.Post("/friend-request/{id}", friendHandler.SendRequest)
		})
		r.Put("/friend-request/{id}/accept", friendHandler.AcceptRequest)
		r.Put("/friend-request/{id}/reject", friendHandler.RejectRequest)
		r.Put("/friend-request/{id}/cancel", friendHandler.CancelRequest)
		r.Delete("/friend-request/{id}/cancel", friendHandler.CancelRequest)

		r.Get("/friend-requests", friendHandler.ListIncoming)
		r.Get("/friend-requests/outgoing", friendHandler.ListOutgoing)
	})

	// WebSocket route, kept out of the request timeout
	r.With(auth).Get("/ws", wsHandler.HandleWebSocket)

	return r
}

// corsMiddleware handles CORS for the configured origins. Credentials are
// allowed so the session cookie reaches the API.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, allowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", strings.Join([]string{
					http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
				}, ", "))
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
