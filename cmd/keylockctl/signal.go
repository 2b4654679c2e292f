package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// setupSignalHandler cancels ctx on the first SIGINT/SIGTERM and forces
// exit on a second one, so an operator stuck waiting on a long bench run
// can always get out with a repeated Ctrl+C.
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
