// Package actions provides the GitHub Actions runtime pieces check-waiter
// relies on: input resolution, step outputs, job identity and failure reporting.
package actions

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// JobIdentity identifies the job invoking check-waiter
type JobIdentity struct {
	Job       string // GITHUB_JOB
	SHA       string // GITHUB_SHA
	RepoOwner string
	RepoName  string
}

// LoadJobIdentity reads the job identity through getenv (usually os.Getenv)
func LoadJobIdentity(getenv func(string) string) JobIdentity {
	identity := JobIdentity{
		Job: getenv("GITHUB_JOB"),
		SHA: getenv("GITHUB_SHA"),
	}

	// GITHUB_REPOSITORY is "owner/name"
	if repo := getenv("GITHUB_REPOSITORY"); repo != "" {
		parts := strings.SplitN(repo, "/", 2)
		identity.RepoOwner = parts[0]
		if len(parts) == 2 {
			identity.RepoName = parts[1]
		}
	}

	return identity
}

// DebugEnabled reports whether step debug logging was requested for the run
func DebugEnabled() bool {
	return os.Getenv("RUNNER_DEBUG") == "1" || strings.EqualFold(os.Getenv("ACTIONS_STEP_DEBUG"), "true")
}

// SetFailed marks the step failed by emitting an error annotation.
// The caller is responsible for exiting non-zero.
func SetFailed(w io.Writer, err error) {
	fmt.Fprintf(w, "::error::%s\n", escapeData(err.Error()))
}

// escapeData escapes a workflow command message
func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}
