// Package app provides the storefront application runner.
//
//	package main
//
//	import (
//	    "github.com/shashiranjanraj/storefront/app/routes"
//	    "github.com/shashiranjanraj/storefront/pkg/app"
//	    _ "github.com/shashiranjanraj/storefront/database/migrations"
//	)
//
//	func main() {
//	    app.New().Routes(routes.Register).Execute()
//	}
//
// The resulting binary understands:
//
//	storefront serve
//	storefront migrate
//	storefront seed
//	storefront route:list
//	storefront storage:init
package app

import (
	"fmt"
	"os"

	"github.com/shashiranjanraj/storefront/pkg/router"
)

// RouteFunc registers routes against the booted services.
type RouteFunc func(r *router.Router, s *Services)

// Application is the central configuration object. Build one with New,
// attach route registrars, then call Execute or Serve.
type Application struct {
	routesFns []RouteFunc
}

// New creates an empty Application.
func New() *Application {
	return &Application{}
}

// Routes adds a route-registration callback. Callbacks run in order when the
// HTTP handler is built.
func (a *Application) Routes(fn RouteFunc) *Application {
	a.routesFns = append(a.routesFns, fn)
	return a
}

// Execute runs the CLI command named by os.Args and exits non-zero on error.
func (a *Application) Execute() {
	if err := a.Command().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
