// Package main is the entry point for the card automation service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/amirb101/three-sided-sub001/internal/bootstrap"
)

// version can be set at build time via -ldflags
var version = "dev"

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yml", "Path to configuration file")
	flag.Usage = printUsage
	flag.Parse()

	command := "serve"
	if args := flag.Args(); len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "serve":
		serve(configPath)
	case "version":
		fmt.Printf("%s %s\n", bootstrap.ServiceName, version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(2)
	}
}

func serve(configPath string) {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, bootstrap.Options{
		ConfigPath: configPath,
		Version:    version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to close application: %v\n", closeErr)
		}
	}()

	if runErr := app.Run(ctx); runErr != nil {
		app.Logger().Error("Application error")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `%s - scheduled flashcard publishing automation

Usage:
  %s [flags] [command]

Commands:
  serve    Run the automation daemon and HTTP API (default)
  version  Print the version and exit
  help     Print this help

Flags:
  -config string
        Path to configuration file (default "config.yml")
`, bootstrap.ServiceName, os.Args[0])
}
