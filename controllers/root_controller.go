package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"posts-api/middlewares"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	middlewares.RespondJSON(w, map[string]string{"message": "Hello from the Server"}, http.StatusOK)
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			middlewares.HttpError(w, r, "Database unavailable", http.StatusServiceUnavailable, err)
			return
		}

		middlewares.RespondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	}
}

// SetupRootRoute registers the greeting at / and the database health check.
func SetupRootRoute(router *mux.Router, db Pinger) {
	router.HandleFunc("/", rootHandler).Methods(http.MethodGet)
	router.HandleFunc("/healthz", healthHandler(db)).Methods(http.MethodGet)
}
