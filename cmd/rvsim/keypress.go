//go:build !windows

package main

import (
	"time"

	"github.com/pkg/term"
)

// keyPollInterval bounds how long the watcher takes to notice stop.
const keyPollInterval = 100 * time.Millisecond

// watchKeypress puts the controlling terminal in cbreak mode and calls pause
// when any key is pressed. The terminal is restored before it returns. Without
// a terminal it waits for stop and does nothing.
func watchKeypress(stop <-chan struct{}, pause func()) {
	t, err := term.Open("/dev/tty", term.CBreakMode)
	if err != nil {
		<-stop
		return
	}
	defer func() {
		_ = t.Restore()
		_ = t.Close()
	}()

	if err := t.SetReadTimeout(keyPollInterval); err != nil {
		<-stop
		return
	}

	buf := make([]byte, 1)
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, _ := t.Read(buf)
		if n > 0 {
			pause()
			<-stop
			return
		}
	}
}
