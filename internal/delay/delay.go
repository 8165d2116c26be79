// Package delay implements a step that pauses for a number of milliseconds
// and reports when it finished, for debugging workflow timing.
package delay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// OutputTime is the output holding the end timestamp
const OutputTime = "time"

// TimeLayout renders timestamps like "15:04:05 GMT+0000 (UTC)"
const TimeLayout = "15:04:05 GMT-0700 (MST)"

// OutputWriter records step outputs
type OutputWriter interface {
	WriteOutput(key, value string) error
}

// Delay pauses a step
type Delay struct {
	outputs OutputWriter
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates a Delay that uses the wall clock
func New(outputs OutputWriter) *Delay {
	return &Delay{
		outputs: outputs,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// ParseMilliseconds parses the milliseconds input
func ParseMilliseconds(s string) (int, error) {
	ms, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("milliseconds not a number")
	}
	if ms < 0 {
		return 0, errors.New("milliseconds must not be negative")
	}
	return ms, nil
}

// Run waits ms milliseconds and writes the end timestamp as the time output
func (d *Delay) Run(ctx context.Context, ms int) (time.Time, error) {
	slog.Debug(fmt.Sprintf("Waiting %d milliseconds ...", ms))
	slog.Debug(d.now().Format(TimeLayout))

	if err := d.sleep(ctx, time.Duration(ms)*time.Millisecond); err != nil {
		return time.Time{}, fmt.Errorf("delay interrupted: %w", err)
	}

	end := d.now()
	slog.Debug(end.Format(TimeLayout))

	if err := d.outputs.WriteOutput(OutputTime, end.Format(TimeLayout)); err != nil {
		return end, fmt.Errorf("failed to set output %s: %w", OutputTime, err)
	}

	return end, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
