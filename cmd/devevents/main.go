// @title DevEvents API
// @version 1.0
// @description Developer events listing and booking API.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Organizer token: Bearer <token>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"devevents/config"
	"devevents/internal/app"
)

const usage = `usage: devevents <command> [flags]

commands:
  serve         run the HTTP API (default)
  migrate       apply database migrations and exit
  issue-token   print an organizer token (-subject, -ttl)
`

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger()

	switch cmd {
	case "serve":
		application, err := app.New(context.Background(), cfg, logger)
		if err != nil {
			log.Fatalf("app init: %v", err)
		}
		if err := application.Run(); err != nil {
			log.Fatalf("app run: %v", err)
		}
	case "migrate":
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := app.Migrate(ctx, cfg, logger); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	case "issue-token":
		fs := flag.NewFlagSet("issue-token", flag.ExitOnError)
		subject := fs.String("subject", "", "organizer identity stored in the token")
		ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
		_ = fs.Parse(args)
		token, err := app.IssueToken(cfg, *subject, *ttl)
		if err != nil {
			log.Fatalf("issue token: %v", err)
		}
		fmt.Println(token)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}
