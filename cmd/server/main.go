package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/Tyrowin/roomchat/internal/server"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	config, err := server.NewConfigFromEnv()
	if err != nil {
		slog.Error("loading configuration", "err", err)
		os.Exit(1)
	}
	server.SetConfig(config)

	logger := server.NewLogger(config.LogLevel, config.LogFormat)
	slog.SetDefault(logger)
	logger.Info("starting roomchat server", "port", config.Port, "origins", config.AllowedOrigins)

	hub := server.NewHub(logger)
	server.StartHub(hub)

	mux, err := server.SetupRoutes(hub)
	if err != nil {
		logger.Error("setting up routes", "err", err)
		os.Exit(1)
	}

	httpServer := server.CreateServer(config.Port, mux)
	go func() {
		if err := server.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "err", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		config.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"relay": func(ctx context.Context) error {
				logger.Info("graceful shutdown initiated")
				// Stop accepting upgrades before closing the sockets.
				httpErr := server.ShutdownServer(httpServer, config.ShutdownTimeout)
				hubErr := hub.Shutdown(config.ShutdownTimeout)
				return errors.Join(httpErr, hubErr)
			},
		},
	)

	exitCode := <-wait
	logger.Info("server exited", "code", exitCode)
	os.Exit(exitCode)
}
