package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"bffgate/internal/config"
	"bffgate/pkg/logging"
)

// Application represents the main application structure that bootstraps and
// runs the gateway.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: load configuration, initialize logging, wire services
//  2. Execution phase: serve until the context is cancelled
//
// Example usage:
//
//	app, err := app.NewApplication(app.NewConfig("bffgate.yaml", nil, false))
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return app.Run(ctx)
type Application struct {
	config        *Config
	gatewayConfig config.GatewayConfig
	services      *Services
}

// NewApplication loads the configuration, initializes logging and wires all
// services. It returns an error if any of these steps fails.
func NewApplication(cfg *Config) (*Application, error) {
	var logOutput io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}

	// Log configuration loading at info until the configured level is known.
	logging.InitForCLI(bootstrapLevel(cfg.Debug), logOutput)

	gatewayCfg, err := config.LoadConfig(cfg.ConfigPath, config.LoadOptions{EnvFiles: cfg.EnvFiles})
	if err != nil {
		return nil, err
	}

	level := logging.ParseLevel(gatewayCfg.Logging.Level)
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.Init(level, gatewayCfg.Logging.Format, logOutput)

	services, err := InitializeServices(gatewayCfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:        cfg,
		gatewayConfig: gatewayCfg,
		services:      services,
	}, nil
}

// Run serves until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	logging.Info("Bootstrap", "Starting gateway on %s with %d routes",
		a.gatewayConfig.Listen.Addr, len(a.gatewayConfig.Routes))
	return a.services.Server.Run(ctx)
}

// Services returns the wired collaborators.
func (a *Application) Services() *Services {
	return a.services
}

func bootstrapLevel(debug bool) logging.LogLevel {
	if debug {
		return logging.LevelDebug
	}
	return logging.LevelInfo
}
