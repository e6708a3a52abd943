package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mikey/spam-guardian/internal/core"
	"github.com/mikey/spam-guardian/internal/di"
	"github.com/mikey/spam-guardian/internal/ports"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	listeners []ports.Listener,
	llmClient core.LLMClient,
) error {
	defer logger.Sync()

	started := make([]ports.Listener, 0, len(listeners))
	for _, l := range listeners {
		if err := l.Start(); err != nil {
			logger.Error("Failed to start listener", zap.String("listener", l.Name()), zap.Error(err))
			stopAll(logger, started)
			return err
		}
		started = append(started, l)
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	stopAll(logger, started)

	// Close any resources that need closing
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}

// stopAll stops listeners in reverse start order
func stopAll(logger *zap.Logger, listeners []ports.Listener) {
	for i := len(listeners) - 1; i >= 0; i-- {
		if err := listeners[i].Stop(); err != nil {
			logger.Error("Failed to stop listener", zap.String("listener", listeners[i].Name()), zap.Error(err))
		}
	}
}
