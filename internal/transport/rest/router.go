package rest

import (
	"net/http"
	"os"

	"ptpal/internal/service"
	"ptpal/internal/transport/rest/handler"
	"ptpal/internal/transport/rest/middleware"
	"ptpal/internal/transport/ws"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	InsightService *service.InsightService
	WSHub          *ws.Hub
	Logger         zerolog.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	insightHandler := handler.NewInsightHandler(c.InsightService)
	eventHandler := handler.NewEventHandler(c.InsightService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/insights", wsHandler.TrainerWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Trainer routes (require trainer auth)
	trainerRoutes := v1.NewRoute().Subrouter()
	trainerRoutes.Use(authMW.RequireTrainer)

	trainerRoutes.HandleFunc("/insights", insightHandler.List).Methods("GET", "OPTIONS")
	trainerRoutes.HandleFunc("/insights/generate", insightHandler.Generate).Methods("POST", "OPTIONS")
	trainerRoutes.HandleFunc("/insights/{id}/read", insightHandler.MarkRead).Methods("POST", "OPTIONS")
	trainerRoutes.HandleFunc("/insights/{id}/action", insightHandler.MarkAction).Methods("POST", "OPTIONS")
	trainerRoutes.HandleFunc("/members/{id}/risk", insightHandler.Risk).Methods("GET", "OPTIONS")
	trainerRoutes.HandleFunc("/members/{id}/evaluate", insightHandler.Evaluate).Methods("POST", "OPTIONS")
	trainerRoutes.HandleFunc("/events/body-records", eventHandler.CreateBodyRecord).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
