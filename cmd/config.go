// Package cmd defines core data structures for check-waiter configuration and check run vocabulary.
package cmd

import "strings"

// Conclusion represents the terminal classification of a completed check run
type Conclusion string

const (
	// ConclusionSuccess indicates the check run succeeded
	ConclusionSuccess Conclusion = "success"
	// ConclusionSkipped indicates the check run was skipped
	ConclusionSkipped Conclusion = "skipped"
	// ConclusionFailure indicates the check run failed
	ConclusionFailure Conclusion = "failure"
	// ConclusionNeutral indicates the check run finished without a pass/fail verdict
	ConclusionNeutral Conclusion = "neutral"
	// ConclusionCancelled indicates the check run was cancelled
	ConclusionCancelled Conclusion = "cancelled"
	// ConclusionTimedOut indicates the check run hit its time limit
	ConclusionTimedOut Conclusion = "timed_out"
	// ConclusionActionRequired indicates the check run needs manual action
	ConclusionActionRequired Conclusion = "action_required"
	// ConclusionAny is the wildcard accepting every conclusion
	ConclusionAny Conclusion = "any"
)

// Conclusions lists every value accepted in the expected-conclusions input
var Conclusions = []Conclusion{
	ConclusionSuccess,
	ConclusionSkipped,
	ConclusionFailure,
	ConclusionNeutral,
	ConclusionCancelled,
	ConclusionTimedOut,
	ConclusionActionRequired,
	ConclusionAny,
}

// ParseConclusion converts a string to a Conclusion, reporting whether it is part of the vocabulary
func ParseConclusion(s string) (Conclusion, bool) {
	switch s {
	case "success":
		return ConclusionSuccess, true
	case "skipped":
		return ConclusionSkipped, true
	case "failure":
		return ConclusionFailure, true
	case "neutral":
		return ConclusionNeutral, true
	case "cancelled":
		return ConclusionCancelled, true
	case "timed_out":
		return ConclusionTimedOut, true
	case "action_required":
		return ConclusionActionRequired, true
	case "any":
		return ConclusionAny, true
	default:
		return Conclusion(s), false
	}
}

// RunStatus represents the lifecycle status of a check run
type RunStatus string

const (
	// RunStatusCompleted indicates the check run has finished
	RunStatusCompleted RunStatus = "completed"
)

// Config represents the structure of check-waiter.yaml
type Config struct {
	Owner               string   `yaml:"owner,omitempty"`
	Repo                string   `yaml:"repo,omitempty"`
	Ref                 string   `yaml:"ref,omitempty"`
	CheckName           string   `yaml:"check_name,omitempty"`
	Interval            string   `yaml:"interval,omitempty"`             // seconds, decimal
	ExpectedConclusions []string `yaml:"expected_conclusions,omitempty"` // joined with "," when used as input default
}

// ExpectedConclusionsInput returns the expected conclusions in the comma-separated input form
func (c *Config) ExpectedConclusionsInput() string {
	return strings.Join(c.ExpectedConclusions, ",")
}
