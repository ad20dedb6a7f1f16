package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	portfolio "github.com/SohailGidwani/next-portfolio-sub000"
)

// version is set at build time via ldflags.
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("portfolio %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func runServe() error {
	app := portfolio.New(portfolio.LoadConfig())
	if err := app.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		app.Close()
		return err
	case <-ctx.Done():
	}

	app.Echo.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

func printUsage() {
	fmt.Println(`portfolio - blog and image API for a personal portfolio site

Usage:
  portfolio [command]

Commands:
  serve         Start the HTTP server (default)
  version       Print the version
  help          Show this help message

Configuration is read from the environment and an optional .env file:
  ADDR, DATABASE_URL, SITE_NAME, SITE_URL, SITE_DESCRIPTION, SITE_AUTHOR,
  ADMIN_PASSWORD, ADMIN_SESSION_SECRET, COOKIE_SECURE, CORS_ORIGINS,
  POST_CACHE_TTL, MAX_UPLOAD_MB, LOG_LEVEL`)
}
