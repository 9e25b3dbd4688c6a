package scheduler

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"market-watcher/internal/quote"
	"market-watcher/internal/render"
	"market-watcher/internal/watchlist"
)

// Mode is the current state of a session.
type Mode int

const (
	Monitoring Mode = iota
	Managing
)

func (m Mode) String() string {
	if m == Managing {
		return "managing"
	}
	return "monitoring"
}

// Aggregator builds the view model for one refresh cycle.
type Aggregator interface {
	Aggregate(ctx context.Context, cfg *watchlist.Config) quote.ViewModel
}

// Renderer draws frames and can release the screen while managing.
type Renderer interface {
	Start() error
	Stop() error
	Render(f render.Frame) error
}

// Persister stores the watchlist after every Manager operation.
type Persister interface {
	Save(cfg *watchlist.Config) error
}

// Options tune session timing.
type Options struct {
	Interval    time.Duration
	Step        time.Duration
	ResumeDelay time.Duration
}

// Scheduler alternates between refreshing the dashboard and the Manager menu.
// It owns cfg; aggregation cycles only see clones of it.
type Scheduler struct {
	opts       Options
	cfg        *watchlist.Config
	agg        Aggregator
	renderer   Renderer
	persister  Persister
	prompter   Prompter
	interrupts <-chan os.Signal
	logger     zerolog.Logger

	mu   sync.Mutex
	mode Mode
}

// New constructs a Scheduler. interrupts delivers the operator's request to
// open the Manager menu.
func New(opts Options, cfg *watchlist.Config, agg Aggregator, renderer Renderer, persister Persister, prompter Prompter, interrupts <-chan os.Signal, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	if opts.Step <= 0 || opts.Step > opts.Interval {
		opts.Step = min(time.Second, opts.Interval)
	}
	return &Scheduler{
		opts:       opts,
		cfg:        cfg,
		agg:        agg,
		renderer:   renderer,
		persister:  persister,
		prompter:   prompter,
		interrupts: interrupts,
		logger:     logger.With().Str("component", "scheduler").Logger(),
	}
}

// Mode reports the current session mode.
func (s *Scheduler) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Scheduler) setMode(m Mode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
	s.logger.Debug().Str("mode", m.String()).Msg("mode switch")
}

// Run blocks until the operator exits (nil) or ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.renderer.Start(); err != nil {
		return err
	}

	for {
		s.setMode(Monitoring)
		if err := s.monitor(ctx); err != nil {
			s.stopRenderer()
			return err
		}

		s.setMode(Managing)
		s.stopRenderer()

		exit, err := s.manage(ctx)
		if err != nil {
			return err
		}
		if exit {
			s.logger.Info().Msg("operator exit")
			return nil
		}

		if err := s.sleep(ctx, s.opts.ResumeDelay); err != nil {
			return err
		}
		s.drainInterrupts()
		if err := s.renderer.Start(); err != nil {
			return err
		}
	}
}

// RunOnce performs a single refresh and draws it. An interrupt abandons the
// refresh and returns context.Canceled.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if err := s.renderer.Start(); err != nil {
		return err
	}
	defer s.stopRenderer()

	vm, interrupted, err := s.refresh(ctx)
	if err != nil {
		return err
	}
	if interrupted {
		return context.Canceled
	}
	return s.renderer.Render(render.Frame{View: vm, Interval: s.opts.Interval})
}

// monitor refreshes on every interval and returns nil once the operator
// interrupts, or ctx's error.
func (s *Scheduler) monitor(ctx context.Context) error {
	for {
		vm, interrupted, err := s.refresh(ctx)
		if err != nil || interrupted {
			return err
		}

		if err := s.renderer.Render(render.Frame{View: vm, Interval: s.opts.Interval}); err != nil {
			s.logger.Error().Err(err).Msg("render failed")
		}

		interrupted, err = s.wait(ctx)
		if err != nil || interrupted {
			return err
		}
	}
}

// refresh runs one aggregation. An interrupt abandons the cycle.
func (s *Scheduler) refresh(ctx context.Context) (quote.ViewModel, bool, error) {
	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshot := s.cfg.Clone()
	done := make(chan quote.ViewModel, 1)
	go func() {
		done <- s.agg.Aggregate(cycleCtx, snapshot)
	}()

	select {
	case vm := <-done:
		return vm, false, nil
	case <-s.interrupts:
		s.logger.Debug().Msg("interrupt during refresh; cycle discarded")
		return quote.ViewModel{}, true, nil
	case <-ctx.Done():
		return quote.ViewModel{}, false, ctx.Err()
	}
}

// wait sleeps for the refresh interval one step at a time so an interrupt is
// seen within a single step.
func (s *Scheduler) wait(ctx context.Context) (bool, error) {
	ticker := time.NewTicker(s.opts.Step)
	defer ticker.Stop()

	for waited := time.Duration(0); waited < s.opts.Interval; waited += s.opts.Step {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-s.interrupts:
			return true, nil
		case <-ticker.C:
		}
	}
	return false, nil
}

// manage runs one Manager operation, persists, and reports whether to exit.
// Closed input is treated as Exit. Cancelling ctx abandons the prompt.
func (s *Scheduler) manage(ctx context.Context) (bool, error) {
	menuCfg := s.cfg.Clone()
	op, err := await(ctx, func() (Op, error) { return s.prompter.Choose(menuCfg) })
	if errors.Is(err, io.EOF) {
		op, err = OpExit, nil
	}
	if err != nil {
		return false, err
	}

	var symbol string
	if question := op.SymbolPrompt(); question != "" {
		symbol, err = await(ctx, func() (string, error) { return s.prompter.Symbol(question) })
		if errors.Is(err, io.EOF) {
			op, err = OpExit, nil
		}
		if err != nil {
			return false, err
		}
	}

	msg := Apply(s.cfg, op, symbol)
	s.prompter.Notify(msg)
	s.logger.Info().Str("op", op.Label(s.cfg)).Str("symbol", watchlist.NormalizeSymbol(symbol)).Msg(msg)

	if err := s.persister.Save(s.cfg); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist watchlist")
		s.prompter.Notify("Warning: watchlist could not be saved: " + err.Error())
	}

	return op == OpExit, nil
}

// await runs a blocking prompt read so that ctx cancellation is not held up
// by it. An abandoned read stays blocked until its input yields.
func await[T any](ctx context.Context, read func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := read()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (s *Scheduler) stopRenderer() {
	if err := s.renderer.Stop(); err != nil {
		s.logger.Error().Err(err).Msg("failed to stop renderer")
	}
}

func (s *Scheduler) drainInterrupts() {
	for {
		select {
		case <-s.interrupts:
		default:
			return
		}
	}
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
