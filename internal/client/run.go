package client

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/Gbr22/citymux/internal/logger"
)

// Run attaches the controlling terminal to a session and blocks until
// detach or session end. The terminal is switched to raw mode and
// restored on every exit path.
func Run(network, addr, name string, create bool) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("stdin is not a terminal")
	}
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return fmt.Errorf("query terminal size: %w", err)
	}

	conn, err := Dial(network, addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Attach(name, create, rows, cols); err != nil {
		return err
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		// Leave the screen in a sane state below the session content,
		// with pointer reporting off in case a pane had it on.
		fmt.Print("\x1b[?1003l\x1b[?1002l\x1b[?1000l\x1b[?1006l\x1b[0m\x1b[?25h\r\n")
	}()

	log := logger.WithComponent("client")

	// Input pump: stdin bytes go to the server verbatim; the router on
	// the server side interprets the prefix.
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				if werr := conn.Send(buf[:n]); werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	// Size pump: platform-specific resize notifications.
	stopResize := notifyResize(func() {
		if c, r, err := term.GetSize(fd); err == nil {
			_ = conn.Resize(r, c)
		}
	})
	defer stopResize()

	for {
		ev, err := conn.Next()
		if err != nil {
			log.Debug().Err(err).Msg("connection ended")
			return nil
		}
		if ev.Closed {
			return nil
		}
		if _, err := os.Stdout.Write(ev.Output); err != nil {
			return err
		}
	}
}
