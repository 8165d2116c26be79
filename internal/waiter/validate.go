// Package waiter polls a named check run until it completes and classifies its conclusion.
package waiter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alan/check-waiter/cmd"
	"github.com/alan/check-waiter/internal/actions"
)

var (
	// ErrConfiguration is returned for inputs that can never lead to a successful wait
	ErrConfiguration = errors.New("invalid configuration")
	// ErrRunNotFound is returned when no run matches the requested check name
	ErrRunNotFound = errors.New("could not find run")
	// ErrUnexpectedConclusion is returned when a run completes with a conclusion outside the accepted set
	ErrUnexpectedConclusion = errors.New("unexpected run conclusion")
)

// RawInputs holds the unvalidated input strings
type RawInputs struct {
	CheckName           string
	Ref                 string
	Owner               string
	Repo                string
	Interval            string // seconds, decimal
	ExpectedConclusions string // comma-separated
	Token               string
}

// PollConfig is a validated wait request
type PollConfig struct {
	Owner               string
	Repo                string
	Ref                 string
	CheckName           string
	Interval            float64 // seconds; zero or negative means no pause between polls
	AcceptedConclusions map[cmd.Conclusion]bool
	Token               string
}

// Accepts reports whether a run conclusion satisfies the configuration
func (c *PollConfig) Accepts(conclusion string) bool {
	return c.AcceptedConclusions[cmd.ConclusionAny] || c.AcceptedConclusions[cmd.Conclusion(conclusion)]
}

// Validate converts raw inputs into a PollConfig. It performs no network access.
func Validate(in RawInputs, job actions.JobIdentity) (*PollConfig, error) {
	if err := requireInputs(in); err != nil {
		return nil, err
	}

	if isSelfWait(in, job) {
		return nil, fmt.Errorf("%w: check %q on %s is the current job; it would wait on itself",
			ErrConfiguration, in.CheckName, in.Ref)
	}

	interval, err := ParseInterval(in.Interval)
	if err != nil {
		return nil, err
	}

	accepted, err := ParseConclusions(in.ExpectedConclusions)
	if err != nil {
		return nil, err
	}

	return &PollConfig{
		Owner:               in.Owner,
		Repo:                in.Repo,
		Ref:                 in.Ref,
		CheckName:           in.CheckName,
		Interval:            interval,
		AcceptedConclusions: accepted,
		Token:               in.Token,
	}, nil
}

func requireInputs(in RawInputs) error {
	required := []struct {
		name  string
		value string
	}{
		{"check-name", in.CheckName},
		{"ref", in.Ref},
		{"owner", in.Owner},
		{"repo", in.Repo},
	}

	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: input required and not supplied: %s", ErrConfiguration, r.name)
		}
	}
	return nil
}

func isSelfWait(in RawInputs, job actions.JobIdentity) bool {
	return in.CheckName == job.Job &&
		in.Ref == job.SHA &&
		in.Owner == job.RepoOwner &&
		in.Repo == job.RepoName
}

// ParseInterval parses a poll interval in seconds. NaN and infinities are rejected.
func ParseInterval(s string) (float64, error) {
	interval, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(interval) || math.IsInf(interval, 0) {
		return 0, fmt.Errorf("%w: invalid interval: %q", ErrConfiguration, s)
	}
	return interval, nil
}

// ParseConclusions parses a comma-separated list of accepted conclusions
func ParseConclusions(s string) (map[cmd.Conclusion]bool, error) {
	accepted := make(map[cmd.Conclusion]bool)
	for _, token := range strings.Split(s, ",") {
		conclusion, ok := cmd.ParseConclusion(strings.TrimSpace(token))
		if !ok {
			return nil, fmt.Errorf("%w: unsupported conclusion: %q", ErrConfiguration, string(conclusion))
		}
		accepted[conclusion] = true
	}
	return accepted, nil
}
