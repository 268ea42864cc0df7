package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shashiranjanraj/storefront/app/views"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

// Cart returns the demo cart.
func Cart(c *ctx.Context) {
	c.Success(views.DemoCart())
}

// Pinger checks one dependency.
type Pinger func(ctx context.Context) error

// Health reports the database and the drivers in use. It answers 503 while
// the database is unreachable.
func Health(db Pinger, drivers map[string]string) ctx.HandlerFunc {
	return func(c *ctx.Context) {
		pingCtx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		body := map[string]any{"status": "ok", "database": "up"}
		for k, v := range drivers {
			body[k] = v
		}
		if err := db(pingCtx); err != nil {
			body["status"], body["database"] = "degraded", "down"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	}
}
