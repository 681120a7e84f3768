//go:build unix

package cli

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyEdges delivers SIGUSR1 as a simulated rising edge on the event pin.
func notifyEdges() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	return ch, func() { signal.Stop(ch) }
}
