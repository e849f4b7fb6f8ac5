package routes

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"posts-api/config"
	"posts-api/controllers"
	"posts-api/db"
	"posts-api/middlewares"
)

// Deps are the collaborators the routes are built on.
type Deps struct {
	Config *config.Config
	Logger zerolog.Logger
	Posts  db.Posts
	DB     controllers.Pinger
}

// SetupRoutes sets up the application routes and middlewares. The rate
// limiter's cleanup goroutine stops when ctx is done.
func SetupRoutes(ctx context.Context, deps Deps) http.Handler {
	cfg := deps.Config
	router := mux.NewRouter()

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middlewares.HttpError(w, r, "Route not found", http.StatusNotFound, nil)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middlewares.HttpError(w, r, "Method not allowed", http.StatusMethodNotAllowed, nil)
	})

	controllers.SetupRootRoute(router, deps.DB)
	controllers.SetupPostRoutes(router, cfg.Server.PostsPrefix, deps.Posts)

	rateLimiter := middlewares.NewRateLimiter(ctx, cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Cleanup, cfg.RateLimit.TrustForwardedFor)
	cors := middlewares.CorsMiddleware(&middlewares.CorsConfig{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", middlewares.RequestIDHeader},
	})

	// mux.Router.Use only wraps matched routes, so the chain wraps the
	// router itself to cover 404s, 405s and preflights too.
	var handler http.Handler = router
	handler = rateLimiter.Limit(handler)
	handler = cors(handler)
	handler = middlewares.Recover(handler)
	handler = middlewares.LoggingMiddleware(deps.Logger)(handler)

	return handler
}
