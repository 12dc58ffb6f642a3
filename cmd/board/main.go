package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"bulletin/internal/client/cli"
	"bulletin/internal/client/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	app, err := cli.NewApp(cfg, newLogger(cfg.DataDir))
	if err != nil {
		log.Fatal(err)
	}

	app.Run(context.Background())
}

// newLogger writes debug output to a file in the data directory so the
// interactive screen stays clean. Logging failures degrade to a silent
// logger rather than killing the client.
func newLogger(dataDir string) *slog.Logger {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "client.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
