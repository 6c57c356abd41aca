package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/matchdigest/pkg/logger"
)

func main() {
	// Initialize logging; the root command re-initializes it from config.
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Get().Error(ctx, "command failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
	stop()
}
