// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"serial-service/internal/config"
	"serial-service/internal/protocol/serial"
	"serial-service/internal/routes"
	"serial-service/internal/service"
	"serial-service/internal/utils"
)

// Application represents the main application
type Application struct {
	config *config.Config
	logger *zap.Logger
	server *http.Server

	commandService *service.CommandService
}

// @title Serial Service API
// @version 1.0.0
// @description Sends terminated commands and raw writes to a serial port

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8085
// @BasePath /api/v1
func main() {
	flags := pflag.NewFlagSet("serial-server", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "", "path to a YAML config file")
	flags.String("port", "", "serial device path")
	flags.String("driver", "", "serial driver: bugst or termios")
	flags.String("listen", "", "HTTP listen port")
	flags.String("log-level", "", "log level")
	flags.Parse(os.Args[1:])

	// Initialize application
	app, err := NewApplication(*configPath, flags)
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// Start the application
	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication(configPath string, flags *pflag.FlagSet) (*Application, error) {
	// Load configuration
	cfg, err := config.Load(configPath, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	utils.NewServiceLogger(logger, cfg.App.Name).LogServiceStart(cfg.App.Version, cfg)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeSerial(nil); err != nil {
		return nil, fmt.Errorf("failed to initialize serial port: %w", err)
	}

	app.initializeServer()
	return app, nil
}

// initializeSerial opens the configured port. A nil opener selects the
// configured driver.
func (app *Application) initializeSerial(opener serial.Opener) error {
	lineConfig, err := app.config.Serial.ConnectionConfig()
	if err != nil {
		return err
	}
	terminator, err := app.config.Serial.DefaultTerminator()
	if err != nil {
		return err
	}
	if opener == nil {
		if opener, err = app.config.Serial.Opener(); err != nil {
			return err
		}
	}

	conn, err := serial.NewConnection(app.config.Serial.Port, lineConfig,
		serial.WithOpener(opener),
		serial.WithLogger(app.logger),
	)
	if err != nil {
		return err
	}

	app.commandService = service.NewCommandService(conn, terminator, app.logger)
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() {
	router := routes.NewRouter(app.config, app.logger, app.commandService).SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized", zap.String("address", app.server.Addr))
}

// waitForShutdown blocks until SIGINT/SIGTERM or a server failure
func (app *Application) waitForShutdown(serverErr <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		app.shutdown("shutdown signal received")
		return nil
	case err := <-serverErr:
		app.shutdown("http server failed")
		return err
	}
}

// shutdown stops the HTTP server before releasing the serial port
func (app *Application) shutdown(reason string) {
	utils.NewServiceLogger(app.logger, app.config.App.Name).LogServiceStop(reason)

	ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	if err := app.commandService.Close(); err != nil {
		app.logger.Error("Serial port close error", zap.Error(err))
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

// Start serves HTTP until a shutdown signal arrives
func (app *Application) Start() error {
	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting HTTP server", zap.String("address", app.server.Addr))

		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	return app.waitForShutdown(serverErr)
}
