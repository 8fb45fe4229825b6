//go:build windows

package client

import (
	"os"
	"time"

	"golang.org/x/term"
)

// notifyResize polls the console size; Windows has no resize signal.
func notifyResize(fn func()) func() {
	done := make(chan struct{})
	go func() {
		fd := int(os.Stdin.Fd())
		lastC, lastR, _ := term.GetSize(fd)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c, r, err := term.GetSize(fd)
				if err == nil && (c != lastC || r != lastR) {
					lastC, lastR = c, r
					fn()
				}
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}
