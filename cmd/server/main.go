package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"form95/cmd/migration/initialize"
	"form95/cmd/migration/seed"
	"form95/config"
	"form95/internal/app"
	"form95/internal/handlers"
	"form95/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.InitConfig()
	if err != nil {
		return err
	}
	logger.Setup(cfg.Environment, cfg.LogLevel, os.Stdout)
	log := logger.New("main").Function("run")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New()
	if err != nil {
		return log.Err("failed to create app", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Er("failed to close app", err)
		}
	}()

	if err := initialize.InitializeTables(ctx, application.Database, application.Config, log); err != nil {
		return err
	}
	if err := seed.Seed(ctx, application.UserController, application.Config, log); err != nil {
		return err
	}

	server := fiber.New(fiber.Config{
		AppName:               "form95",
		DisableStartupMessage: application.Config.IsProduction(),
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          application.Config.DocumentTimeout + 30*time.Second,
	})
	server.Use(recover.New())

	if err := handlers.Router(server, application); err != nil {
		return log.Err("failed to register routes", err)
	}

	errs := make(chan error, 1)
	go func() {
		errs <- server.Listen(fmt.Sprintf(":%d", application.Config.ServerPort))
	}()
	log.Info("Server listening", "port", application.Config.ServerPort)

	select {
	case err := <-errs:
		return log.Err("server stopped", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	return server.ShutdownWithTimeout(10 * time.Second)
}
