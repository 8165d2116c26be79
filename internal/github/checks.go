package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v57/github"
)

// ErrCheckRunNotFound is returned when no check run matches the requested name on a ref
var ErrCheckRunNotFound = errors.New("check run not found")

// LatestCheckRun returns the most recent check run named checkName on ref
func (c *Client) LatestCheckRun(ctx context.Context, ref, checkName string) (*CheckRun, error) {
	opts := &github.ListCheckRunsOptions{
		CheckName: github.String(checkName),
		Filter:    github.String("latest"),
	}

	slog.Debug("GitHub API: Listing check runs for ref", "owner", c.owner, "repo", c.repo, "ref", ref, "check_name", checkName)
	result, _, err := c.client.Checks.ListCheckRunsForRef(ctx, c.owner, c.repo, ref, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list check runs for %s@%s: %w", c.Repository(), ref, err)
	}

	if len(result.CheckRuns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCheckRunNotFound, checkName)
	}

	return convertCheckRun(result.CheckRuns[0]), nil
}

// convertCheckRun maps a go-github check run onto our CheckRun
func convertCheckRun(run *github.CheckRun) *CheckRun {
	converted := &CheckRun{
		ID:         run.GetID(),
		Name:       run.GetName(),
		HeadSHA:    run.GetHeadSHA(),
		Status:     run.GetStatus(),
		Conclusion: run.Conclusion,
		HTMLURL:    run.GetHTMLURL(),
		DetailsURL: run.GetDetailsURL(),
		AppSlug:    run.GetApp().GetSlug(),
	}

	if run.StartedAt != nil {
		startedAt := run.StartedAt.Time
		converted.StartedAt = &startedAt
	}
	if run.CompletedAt != nil {
		completedAt := run.CompletedAt.Time
		converted.CompletedAt = &completedAt
	}

	return converted
}
