package main

import (
	"log"
	"os"

	"go-starter/internal/build"
	"go-starter/internal/cli"
)

// @title go-starter API
// @version 1.0
// @description Authenticated web application starter: sessions, sign-in providers, profile.
// @host localhost:8080
// @BasePath /
func main() {
	app := cli.NewApp()
	app.Name = "go-starter"
	app.Version = build.Version
	app.Usage = "Authenticated web application starter with configuration management"

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
