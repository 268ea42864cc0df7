// Command storefront is the operator CLI: serve, migrate, seed, route:list
// and the storage maintenance commands.
package main

import (
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/pkg/app"

	// Register migrations through their init() funcs.
	_ "github.com/shashiranjanraj/storefront/database/migrations"
)

func main() {
	app.New().Routes(routes.Register).Execute()
}
