package waiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alan/check-waiter/cmd"
	"github.com/alan/check-waiter/internal/github"
)

// Output names written when a run completes
const (
	OutputConclusion = "conclusion"
	OutputRun        = "run"
)

// Fetcher retrieves the most recent run of a named check on a ref
type Fetcher interface {
	LatestCheckRun(ctx context.Context, ref, checkName string) (*github.CheckRun, error)
}

// OutputWriter records step outputs
type OutputWriter interface {
	WriteOutput(key, value string) error
}

// SleepFunc pauses for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Outcome is the result of a completed wait
type Outcome struct {
	Conclusion string
	Run        *github.CheckRun
	Polls      int
}

// Waiter drives the poll loop
type Waiter struct {
	fetcher Fetcher
	outputs OutputWriter
	sleep   SleepFunc
	logger  *slog.Logger
}

// Option customizes a Waiter
type Option func(*Waiter)

// WithSleep replaces the pause between polls
func WithSleep(sleep SleepFunc) Option {
	return func(w *Waiter) {
		w.sleep = sleep
	}
}

// WithLogger replaces the logger used for per-poll records
func WithLogger(logger *slog.Logger) Option {
	return func(w *Waiter) {
		w.logger = logger
	}
}

// New creates a Waiter
func New(fetcher Fetcher, outputs OutputWriter, opts ...Option) *Waiter {
	w := &Waiter{
		fetcher: fetcher,
		outputs: outputs,
		sleep:   Sleep,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Wait polls until the configured check run completes. There is no iteration
// limit; only ctx bounds the wait.
//
// When the run completes, the conclusion and run outputs are written before the
// conclusion is checked against the accepted set, so a failing step still
// exposes what it observed. The returned Outcome is non-nil whenever the run
// completed, including when ErrUnexpectedConclusion is returned.
func (w *Waiter) Wait(ctx context.Context, cfg *PollConfig) (*Outcome, error) {
	interval := IntervalDuration(cfg.Interval)

	for polls := 1; ; polls++ {
		run, err := w.fetcher.LatestCheckRun(ctx, cfg.Ref, cfg.CheckName)
		if errors.Is(err, github.ErrCheckRunNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, cfg.CheckName)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch run %s: %w", cfg.CheckName, err)
		}

		w.logRun(run)

		if isFinished(run) {
			outcome := &Outcome{Conclusion: run.GetConclusion(), Run: run, Polls: polls}
			if err := w.writeOutputs(outcome); err != nil {
				return outcome, err
			}
			if !cfg.Accepts(outcome.Conclusion) {
				return outcome, fmt.Errorf("%w: %s", ErrUnexpectedConclusion, outcome.Conclusion)
			}
			return outcome, nil
		}

		if err := w.sleep(ctx, interval); err != nil {
			return nil, fmt.Errorf("stopped waiting on run %s: %w", cfg.CheckName, err)
		}
	}
}

// isFinished requires a conclusion as well as the completed status; the API can
// briefly report "completed" before the conclusion is populated.
func isFinished(run *github.CheckRun) bool {
	return cmd.RunStatus(run.Status) == cmd.RunStatusCompleted && run.Conclusion != nil
}

func (w *Waiter) logRun(run *github.CheckRun) {
	msg := "waiting on run"
	if cmd.RunStatus(run.Status) == cmd.RunStatusCompleted {
		msg = "run completed"
	}

	w.logger.Info(msg,
		"name", run.Name,
		"status", run.Status,
		"conclusion", run.GetConclusion(),
		"started_at", formatTime(run.StartedAt),
		"completed_at", formatTime(run.CompletedAt),
	)
}

func (w *Waiter) writeOutputs(outcome *Outcome) error {
	if err := w.outputs.WriteOutput(OutputConclusion, outcome.Conclusion); err != nil {
		return fmt.Errorf("failed to set output %s: %w", OutputConclusion, err)
	}

	data, err := json.Marshal(outcome.Run)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}
	if err := w.outputs.WriteOutput(OutputRun, string(data)); err != nil {
		return fmt.Errorf("failed to set output %s: %w", OutputRun, err)
	}

	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// IntervalDuration converts an interval in seconds to a Duration, clamped to
// the representable range
func IntervalDuration(seconds float64) time.Duration {
	nanos := seconds * float64(time.Second)
	switch {
	case nanos >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	case nanos <= math.MinInt64:
		return time.Duration(math.MinInt64)
	default:
		return time.Duration(nanos)
	}
}

// Sleep pauses for d, returning early with ctx.Err() if ctx is done.
// A zero or negative d returns immediately.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
