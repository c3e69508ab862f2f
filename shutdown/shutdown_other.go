//go:build !windows

package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

// Listen returns a channel that receives the platform's termination
// signals.
func Listen() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}
