package app

// pkg/app/kernel.go builds the http.Handler: global middleware first, then
// every route-registration callback of the Application.

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/reqid"
	"github.com/shashiranjanraj/storefront/pkg/router"
	"github.com/shashiranjanraj/storefront/pkg/ws"
)

const (
	rateLimit  = 200
	rateWindow = time.Minute
)

// buildRouter applies the global middleware and registers the routes.
//
// Middleware order (outermost → innermost):
//  1. Prometheus metrics, for accurate total latency
//  2. Request ID, so everything below logs it
//  3. Recovery
//  4. Logger
//  5. CORS
//  6. Rate limiter
func buildRouter(a *Application, s *Services) *router.Router {
	cors := middleware.CORSFromConfig()
	ws.SetCheckOrigin(originChecker(cors.AllowedOrigins))

	r := router.New()
	r.Use(metrics.Middleware())
	r.Use(reqid.Middleware())
	r.Use(middleware.Recovery)
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(cors))
	r.Use(middleware.RateLimit(rateLimit, rateWindow))

	for _, fn := range a.routesFns {
		fn(r, s)
	}
	return r
}

func buildHandler(a *Application, s *Services) http.Handler {
	return buildRouter(a, s).Handler()
}

// originChecker admits websocket upgrades from the CORS allow-list. A
// wildcard entry, or a request without Origin, is always allowed.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
