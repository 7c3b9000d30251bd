package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/filepulse/core"
	"golang.org/x/term"
)

// progressPrinter renders scan progress on stderr when it is a terminal.
// Call the returned finish function once the scan is over.
func progressPrinter() (core.ProgressFunc, func()) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil, func() {}
	}
	fn, events, closeEvents := core.ProgressChannel(64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		last := -1
		for p := range events {
			percent := 100
			if p.Total > 0 {
				percent = p.Done * 100 / p.Total
			}
			if percent == last {
				continue
			}
			last = percent
			_, _ = fmt.Fprintf(os.Stderr, "\rScanning files... %3d%% (%d/%d)", percent, p.Done, p.Total)
		}
		if last >= 0 {
			_, _ = fmt.Fprintln(os.Stderr)
		}
	}()
	return fn, func() {
		closeEvents()
		<-done
	}
}
