//go:build !windows

package client

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// notifyResize invokes fn on SIGWINCH until the returned stop
// function is called.
func notifyResize(fn func()) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGWINCH)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				fn()
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
