// Command server runs the storefront HTTP server. It is the container entry
// point; cmd/storefront carries the operator commands.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/pkg/app"

	_ "github.com/shashiranjanraj/storefront/database/migrations"
)

func main() {
	if err := app.New().Routes(routes.Register).Serve(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "storefront:", err)
		os.Exit(1)
	}
}
