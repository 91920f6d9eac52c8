// Package shutdown ties service lifetime to process signals. Every binary
// runs until SIGINT or SIGTERM, then drains within GracePeriod.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// GracePeriod bounds draining on shutdown: in-flight HTTP requests and
// consumer loops get this long to finish before the process exits.
const GracePeriod = 10 * time.Second

// WithSignals returns a context cancelled on SIGINT or SIGTERM.
func WithSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-ch
		cancel()
	}()

	return ctx, cancel
}

// GraceContext is the drain deadline used after the run context ends.
func GraceContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), GracePeriod)
}
