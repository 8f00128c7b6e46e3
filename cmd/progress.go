package main

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

// progressLine rewrites a single status line on stderr while a fit is
// running. It stays silent when stderr is not a terminal, so piped and
// logged runs keep clean output.
type progressLine struct {
	enabled bool
	last    time.Time
	wrote   bool
}

func newProgressLine() *progressLine {
	return &progressLine{
		enabled: term.IsTerminal(int(os.Stderr.Fd())),
	}
}

// Update redraws the status line, throttled to ten redraws per second.
func (p *progressLine) Update(chords int, loss float64) {
	if !p.enabled {
		return
	}
	now := time.Now()
	if now.Sub(p.last) < 100*time.Millisecond {
		return
	}
	p.last = now
	p.wrote = true
	fmt.Fprintf(os.Stderr, "\r\033[Kchords: %d  loss: %.2f", chords, loss)
}

// Done terminates the status line if anything was drawn.
func (p *progressLine) Done() {
	if p.enabled && p.wrote {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}
}
