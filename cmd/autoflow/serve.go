package main

import (
	"context"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dukex/autoflow/pkg/log"
	"github.com/gofiber/fiber/v3"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 30 * time.Second

func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the HTTP API and the scheduler",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing autoflow API")

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := NewApplication(ctx, optionsFrom(command), logger)
			if err != nil {
				return err
			}

			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()

				if err := app.Close(shutdownCtx); err != nil {
					logger.Error("Failed to shut down cleanly", "error", err)
				}
			}()

			if err := app.Start(ctx); err != nil {
				return err
			}

			server := app.HTTP()

			go func() {
				<-ctx.Done()
				logger.Info("Shutting down API server")

				if err := server.ShutdownWithTimeout(shutdownTimeout); err != nil {
					logger.Error("Failed to shut down API server", "error", err)
				}
			}()

			addr := ":" + strconv.Itoa(command.Int("port"))
			logger.InfoContext(ctx, "Starting API server", "addr", addr)

			return server.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
		},
	}
}
