package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/nasermirzaei89/posthub"
)

const usage = "usage: posthub [serve | promote <username> | migrate-down]"

func main() {
	ctx := context.Background()

	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.ErrorContext(ctx, "failed to load .env file", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: posthub.GetLogLevelFromEnv(),
	})))

	app, err := posthub.NewApp(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create app", "error", err)
		os.Exit(1)
	}

	args := os.Args[1:]

	switch {
	case len(args) == 0 || args[0] == "serve":
		err = app.Run(ctx)
	case args[0] == "promote" && len(args) == 2:
		err = app.PromoteToSuperuser(ctx, args[1])
	case args[0] == "migrate-down" && len(args) == 1:
		err = app.MigrateDown(ctx)
	default:
		app.Close(ctx)
		slog.ErrorContext(ctx, usage)
		os.Exit(2)
	}

	if err != nil {
		slog.ErrorContext(ctx, "failed to run app", "error", err)
		os.Exit(1)
	}
}
