// Package main provides the entry point for the Healthy Recipe Client web frontend
// It serves the recipe pages and talks to the recipe service backend
package main

import (
	"flag"
	"fmt"

	"github.com/alchemorsel/recipeclient/internal/infrastructure/container"
	"go.uber.org/fx"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	fmt.Println("Healthy Recipe Client - Web Frontend")
	fmt.Println()

	app := fx.New(
		fx.NopLogger,
		container.Module(*configPath),
	)

	// Run blocks until SIGINT or SIGTERM
	app.Run()
}
