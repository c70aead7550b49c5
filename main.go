package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"drelease/internal/release"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigs:
			fmt.Fprintf(os.Stderr, "\nReceived %v, aborting run\n", sig)
			cancel()
			// Give the blocked child a moment to die, then force exit
			// on a second signal.
			select {
			case <-sigs:
				os.Exit(130)
			case <-time.After(2 * time.Second):
			}
		case <-ctx.Done():
		}
	}()

	if err := release.Main(ctx, os.Args[1:]); err != nil {
		release.ReportError(err)
		os.Exit(1)
	}
}
