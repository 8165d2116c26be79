package waiter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/alan/check-waiter/cmd"
	"github.com/alan/check-waiter/internal/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchResult struct {
	run *github.CheckRun
	err error
}

// fakeFetcher replays results in order, repeating the last one
type fakeFetcher struct {
	results []fetchResult
	calls   int
	events  *[]string
}

func (f *fakeFetcher) LatestCheckRun(_ context.Context, ref, checkName string) (*github.CheckRun, error) {
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	if f.events != nil {
		*f.events = append(*f.events, "fetch "+checkName+"@"+ref)
	}
	return f.results[i].run, f.results[i].err
}

type recordingOutputs struct {
	values map[string]string
	events *[]string
	err    error
}

func (o *recordingOutputs) WriteOutput(key, value string) error {
	if o.err != nil {
		return o.err
	}
	if o.values == nil {
		o.values = map[string]string{}
	}
	o.values[key] = value
	if o.events != nil {
		*o.events = append(*o.events, "output "+key)
	}
	return nil
}

type sleepRecorder struct {
	durations []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.durations = append(s.durations, d)
	return nil
}

func runWith(status string, conclusion *string) *github.CheckRun {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	run := &github.CheckRun{ID: 42, Name: "build", HeadSHA: "abc123", Status: status, Conclusion: conclusion, StartedAt: &started}
	if conclusion != nil {
		completed := started.Add(5 * time.Minute)
		run.CompletedAt = &completed
	}
	return run
}

func conclusionPtr(s string) *string {
	return &s
}

func pollConfig(interval float64, accepted ...cmd.Conclusion) *PollConfig {
	set := map[cmd.Conclusion]bool{}
	for _, c := range accepted {
		set[c] = true
	}
	return &PollConfig{
		Owner:               "octo",
		Repo:                "hello",
		Ref:                 "abc123",
		CheckName:           "build",
		Interval:            interval,
		AcceptedConclusions: set,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestWaiter_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		accepted       []cmd.Conclusion
		results        []fetchResult
		wantPolls      int
		wantSleeps     int
		wantErr        error
		wantErrMsg     string
		wantConclusion string
		wantOutputs    bool
	}{
		{
			name:     "A: completes successfully after two in-progress polls",
			accepted: []cmd.Conclusion{cmd.ConclusionSuccess},
			results: []fetchResult{
				{run: runWith("in_progress", nil)},
				{run: runWith("in_progress", nil)},
				{run: runWith("completed", conclusionPtr("success"))},
			},
			wantPolls:      3,
			wantSleeps:     2,
			wantConclusion: "success",
			wantOutputs:    true,
		},
		{
			name:     "B: wildcard accepts failure on first poll",
			accepted: []cmd.Conclusion{cmd.ConclusionAny},
			results: []fetchResult{
				{run: runWith("completed", conclusionPtr("failure"))},
			},
			wantPolls:      1,
			wantSleeps:     0,
			wantConclusion: "failure",
			wantOutputs:    true,
		},
		{
			name:     "C: cancelled run is rejected after outputs are set",
			accepted: []cmd.Conclusion{cmd.ConclusionSuccess},
			results: []fetchResult{
				{run: runWith("completed", conclusionPtr("cancelled"))},
			},
			wantPolls:      1,
			wantSleeps:     0,
			wantErr:        ErrUnexpectedConclusion,
			wantErrMsg:     "unexpected run conclusion: cancelled",
			wantConclusion: "cancelled",
			wantOutputs:    true,
		},
		{
			name:     "D: missing run fails immediately",
			accepted: []cmd.Conclusion{cmd.ConclusionSuccess},
			results: []fetchResult{
				{err: fmt.Errorf("%w: build", github.ErrCheckRunNotFound)},
			},
			wantPolls:  1,
			wantSleeps: 0,
			wantErr:    ErrRunNotFound,
			wantErrMsg: "could not find run: build",
		},
		{
			name:     "completed without conclusion keeps polling",
			accepted: []cmd.Conclusion{cmd.ConclusionSuccess},
			results: []fetchResult{
				{run: runWith("completed", nil)},
				{run: runWith("completed", conclusionPtr("success"))},
			},
			wantPolls:      2,
			wantSleeps:     1,
			wantConclusion: "success",
			wantOutputs:    true,
		},
		{
			name:     "queued then completed outside accepted set",
			accepted: []cmd.Conclusion{cmd.ConclusionSuccess, cmd.ConclusionSkipped},
			results: []fetchResult{
				{run: runWith("queued", nil)},
				{run: runWith("completed", conclusionPtr("timed_out"))},
			},
			wantPolls:      2,
			wantSleeps:     1,
			wantErr:        ErrUnexpectedConclusion,
			wantErrMsg:     "timed_out",
			wantConclusion: "timed_out",
			wantOutputs:    true,
		},
		{
			name:     "transport error propagates without retry",
			accepted: []cmd.Conclusion{cmd.ConclusionSuccess},
			results: []fetchResult{
				{err: errors.New("connection reset")},
			},
			wantPolls:  1,
			wantSleeps: 0,
			wantErrMsg: "connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{results: tt.results}
			outputs := &recordingOutputs{}
			sleeper := &sleepRecorder{}
			w := New(fetcher, outputs, WithSleep(sleeper.sleep), WithLogger(discardLogger()))

			outcome, err := w.Wait(context.Background(), pollConfig(10, tt.accepted...))

			assert.Equal(t, tt.wantPolls, fetcher.calls, "polls")
			assert.Len(t, sleeper.durations, tt.wantSleeps, "sleeps")
			for _, d := range sleeper.durations {
				assert.Equal(t, 10*time.Second, d)
			}

			if tt.wantErr != nil || tt.wantErrMsg != "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.True(t, errors.Is(err, tt.wantErr), "error %v should wrap %v", err, tt.wantErr)
				}
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				require.NoError(t, err)
			}

			if tt.wantOutputs {
				require.NotNil(t, outcome)
				assert.Equal(t, tt.wantConclusion, outcome.Conclusion)
				assert.Equal(t, tt.wantPolls, outcome.Polls)
				assert.Equal(t, tt.wantConclusion, outputs.values[OutputConclusion])
				assert.Contains(t, outputs.values, OutputRun)
			} else {
				assert.Nil(t, outcome)
				assert.Empty(t, outputs.values)
			}
		})
	}
}

func TestWaiter_NotFoundNeverLoops(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{err: fmt.Errorf("%w: build", github.ErrCheckRunNotFound)}}}
	sleeper := &sleepRecorder{}
	w := New(fetcher, &recordingOutputs{}, WithSleep(sleeper.sleep), WithLogger(discardLogger()))

	_, err := w.Wait(context.Background(), pollConfig(0.1, cmd.ConclusionAny))

	require.Error(t, err)
	assert.False(t, errors.Is(err, github.ErrCheckRunNotFound), "reported as the waiter's own not-found error")
	assert.True(t, errors.Is(err, ErrRunNotFound))
	assert.Equal(t, 1, fetcher.calls)
	assert.Empty(t, sleeper.durations)
}

func TestWaiter_OutputsBeforeConclusionCheck(t *testing.T) {
	var events []string
	fetcher := &fakeFetcher{
		results: []fetchResult{{run: runWith("completed", conclusionPtr("failure"))}},
		events:  &events,
	}
	outputs := &recordingOutputs{events: &events}
	w := New(fetcher, outputs, WithSleep((&sleepRecorder{}).sleep), WithLogger(discardLogger()))

	outcome, err := w.Wait(context.Background(), pollConfig(1, cmd.ConclusionSuccess))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedConclusion))
	assert.Equal(t, []string{"fetch build@abc123", "output conclusion", "output run"}, events)
	require.NotNil(t, outcome)
	assert.Equal(t, "failure", outcome.Conclusion)
	assert.Equal(t, "failure", outputs.values[OutputConclusion])
}

func TestWaiter_RunOutputIsJSON(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{run: runWith("completed", conclusionPtr("success"))}}}
	outputs := &recordingOutputs{}
	w := New(fetcher, outputs, WithLogger(discardLogger()))

	_, err := w.Wait(context.Background(), pollConfig(1, cmd.ConclusionSuccess))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(outputs.values[OutputRun]), &decoded))
	assert.Equal(t, float64(42), decoded["id"])
	assert.Equal(t, "build", decoded["name"])
	assert.Equal(t, "completed", decoded["status"])
	assert.Equal(t, "success", decoded["conclusion"])
	assert.Equal(t, "abc123", decoded["head_sha"])
	assert.Equal(t, "2024-05-01T10:00:00Z", decoded["started_at"])
	assert.False(t, strings.Contains(outputs.values[OutputRun], "\n"), "run output is a single line")
}

func TestWaiter_OutputError(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{run: runWith("completed", conclusionPtr("success"))}}}
	outputs := &recordingOutputs{err: errors.New("disk full")}
	w := New(fetcher, outputs, WithLogger(discardLogger()))

	outcome, err := w.Wait(context.Background(), pollConfig(1, cmd.ConclusionSuccess))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set output conclusion: disk full")
	assert.NotNil(t, outcome)
}

func TestWaiter_LogsEachPoll(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	fetcher := &fakeFetcher{results: []fetchResult{
		{run: runWith("in_progress", nil)},
		{run: runWith("completed", conclusionPtr("success"))},
	}}
	w := New(fetcher, &recordingOutputs{}, WithSleep((&sleepRecorder{}).sleep), WithLogger(logger))

	_, err := w.Wait(context.Background(), pollConfig(1, cmd.ConclusionSuccess))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, "waiting on run", first["msg"])
	assert.Equal(t, "in_progress", first["status"])
	assert.Equal(t, "", first["conclusion"])
	assert.Equal(t, "2024-05-01T10:00:00Z", first["started_at"])
	assert.Equal(t, "", first["completed_at"])

	assert.Equal(t, "run completed", second["msg"])
	assert.Equal(t, "build", second["name"])
	assert.Equal(t, "success", second["conclusion"])
	assert.Equal(t, "2024-05-01T10:05:00Z", second["completed_at"])
}

func TestWaiter_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &fakeFetcher{results: []fetchResult{{run: runWith("in_progress", nil)}}}
	sleep := func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}
	w := New(fetcher, &recordingOutputs{}, WithSleep(sleep), WithLogger(discardLogger()))

	outcome, err := w.Wait(ctx, pollConfig(1, cmd.ConclusionSuccess))

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, outcome)
	assert.Equal(t, 1, fetcher.calls)
}

func TestWaiter_NonPositiveIntervalStillPolls(t *testing.T) {
	for _, interval := range []float64{0, -3} {
		t.Run(fmt.Sprintf("interval %v", interval), func(t *testing.T) {
			fetcher := &fakeFetcher{results: []fetchResult{
				{run: runWith("queued", nil)},
				{run: runWith("completed", conclusionPtr("skipped"))},
			}}
			w := New(fetcher, &recordingOutputs{}, WithLogger(discardLogger()))

			outcome, err := w.Wait(context.Background(), pollConfig(interval, cmd.ConclusionSkipped))

			require.NoError(t, err)
			assert.Equal(t, 2, outcome.Polls)
		})
	}
}

func TestIntervalDuration(t *testing.T) {
	tests := []struct {
		name     string
		seconds  float64
		expected time.Duration
	}{
		{name: "whole seconds", seconds: 10, expected: 10 * time.Second},
		{name: "fractional", seconds: 0.25, expected: 250 * time.Millisecond},
		{name: "zero", seconds: 0, expected: 0},
		{name: "negative", seconds: -1, expected: -time.Second},
		{name: "clamped high", seconds: 1e300, expected: time.Duration(math.MaxInt64)},
		{name: "clamped low", seconds: -1e300, expected: time.Duration(math.MinInt64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IntervalDuration(tt.seconds))
		})
	}
}

func TestSleep(t *testing.T) {
	t.Run("non-positive returns immediately", func(t *testing.T) {
		assert.NoError(t, Sleep(context.Background(), 0))
		assert.NoError(t, Sleep(context.Background(), -time.Second))
	})

	t.Run("waits for the duration", func(t *testing.T) {
		start := time.Now()
		require.NoError(t, Sleep(context.Background(), 20*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("returns early when cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		err := Sleep(ctx, time.Hour)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestSummary(t *testing.T) {
	run := runWith("completed", conclusionPtr("failure"))
	run.HTMLURL = "https://github.com/octo/hello/runs/42"

	t.Run("rejected conclusion", func(t *testing.T) {
		summary := Summary(pollConfig(1, cmd.ConclusionSuccess), &Outcome{Conclusion: "failure", Run: run, Polls: 3})

		assert.Contains(t, summary, "[build](https://github.com/octo/hello/runs/42)")
		assert.Contains(t, summary, "octo/hello")
		assert.Contains(t, summary, "`abc123`")
		assert.Contains(t, summary, "❌ failure")
		assert.Contains(t, summary, "| 3 |")
	})

	t.Run("accepted conclusion without link", func(t *testing.T) {
		plain := runWith("completed", conclusionPtr("success"))
		summary := Summary(pollConfig(1, cmd.ConclusionSuccess), &Outcome{Conclusion: "success", Run: plain, Polls: 1})

		assert.Contains(t, summary, "| build |")
		assert.Contains(t, summary, "✅ success")
	})
}
