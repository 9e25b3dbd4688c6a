package render

import (
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"market-watcher/internal/indicator"
)

// Options tune the terminal renderer.
type Options struct {
	BarWidth  int
	RSIPeriod int
	NoColor   bool
	// Inline writes frames sequentially without taking over the screen.
	Inline bool
}

// Terminal draws frames on an ANSI terminal. While stopped it drops frames so
// it never overwrites the manager prompt.
type Terminal struct {
	mu      sync.Mutex
	out     *termenv.Output
	palette palette
	opts    Options
	active  bool
}

// NewTerminal constructs a renderer writing to w.
func NewTerminal(w io.Writer, opts Options) *Terminal {
	if opts.BarWidth <= 0 {
		opts.BarWidth = 15
	}
	if opts.RSIPeriod <= 0 {
		opts.RSIPeriod = indicator.DefaultRSIPeriod
	}

	var outOpts []termenv.OutputOption
	if opts.NoColor {
		outOpts = append(outOpts, termenv.WithProfile(termenv.Ascii))
	}
	out := termenv.NewOutput(w, outOpts...)

	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(out.Profile)

	return &Terminal{out: out, palette: newPalette(r), opts: opts}
}

// Start takes over the screen.
func (t *Terminal) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		return nil
	}
	if !t.opts.Inline {
		t.out.AltScreen()
		t.out.HideCursor()
		t.out.ClearScreen()
	}
	t.active = true
	return nil
}

// Stop releases the screen. Subsequent frames are dropped until Start.
func (t *Terminal) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return nil
	}
	if !t.opts.Inline {
		t.out.ShowCursor()
		t.out.ExitAltScreen()
	}
	t.active = false
	return nil
}

// Render draws f if the renderer is active.
func (t *Terminal) Render(f Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return nil
	}
	if !t.opts.Inline {
		t.out.ClearScreen()
	}
	_, err := io.WriteString(t.out, compose(f, t.palette, t.opts))
	return err
}
