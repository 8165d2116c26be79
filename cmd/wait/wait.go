// Package wait implements the wait command for blocking until a check run completes.
package wait

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/alan/check-waiter/cmd"
	"github.com/alan/check-waiter/internal/actions"
	"github.com/alan/check-waiter/internal/commands"
	"github.com/alan/check-waiter/internal/waiter"
	"github.com/spf13/cobra"
)

var inputNames = []string{
	commands.InputCheckName,
	commands.InputRef,
	commands.InputOwner,
	commands.InputRepo,
	commands.InputInterval,
	commands.InputExpectedConclusions,
	commands.InputGitHubToken,
}

// NewWaitCmd creates and returns the wait command
func NewWaitCmd(globalConfigFile *string, loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	waitCmd := &cobra.Command{
		Use:   "wait",
		Short: "Wait for a check run to complete",
		Long: `Poll the latest check run with the given name on a ref until it completes.

Sets the "conclusion" and "run" outputs once the run has completed and fails
when the conclusion is not one of --expected-conclusions ("any" accepts all).
Every flag can also be supplied as an action input (INPUT_<NAME>) or through
the defaults file.`,
		SilenceUsage: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			bc := &commands.BaseCommand{
				ConfigFile: globalConfigFile,
				LoadConfig: loadConfig,
			}
			if err := bc.Init(cobraCmd.Flags(), inputNames...); err != nil {
				return err
			}
			return runWait(cobraCmd.Context(), bc, os.Getenv)
		},
	}

	addWaitFlags(waitCmd)

	return waitCmd
}

// addWaitFlags adds all flags to the wait command
func addWaitFlags(waitCmd *cobra.Command) {
	waitCmd.Flags().StringP(commands.InputCheckName, "n", "", "Name of the check run to wait for")
	waitCmd.Flags().String(commands.InputRef, "", "Commit SHA, branch or tag the check ran on")
	waitCmd.Flags().StringP(commands.InputOwner, "o", "", "Repository owner")
	waitCmd.Flags().StringP(commands.InputRepo, "r", "", "Repository name")
	waitCmd.Flags().StringP(commands.InputInterval, "i", "10", "Seconds between polls")
	waitCmd.Flags().StringP(commands.InputExpectedConclusions, "e", string(cmd.ConclusionSuccess),
		"Comma-separated conclusions that count as success ("+conclusionList()+")")
	waitCmd.Flags().String(commands.InputGitHubToken, "", "GitHub token (defaults to GITHUB_TOKEN)")
}

// conclusionList renders the accepted conclusion vocabulary for help text
func conclusionList() string {
	names := make([]string, 0, len(cmd.Conclusions))
	for _, c := range cmd.Conclusions {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

// readInputs collects the raw input values
func readInputs(inputs *actions.Inputs) waiter.RawInputs {
	return waiter.RawInputs{
		CheckName:           inputs.Get(commands.InputCheckName),
		Ref:                 inputs.Get(commands.InputRef),
		Owner:               inputs.Get(commands.InputOwner),
		Repo:                inputs.Get(commands.InputRepo),
		Interval:            inputs.Get(commands.InputInterval),
		ExpectedConclusions: inputs.Get(commands.InputExpectedConclusions),
		Token:               inputs.Get(commands.InputGitHubToken),
	}
}

func runWait(ctx context.Context, bc *commands.BaseCommand, getenv func(string) string) error {
	cfg, err := waiter.Validate(readInputs(bc.Inputs), actions.LoadJobIdentity(getenv))
	if err != nil {
		return err
	}

	cfg.Token, err = bc.GitHubToken()
	if err != nil {
		return err
	}

	if bc.GitHubClient == nil {
		if err := bc.InitGitHubClient(ctx, cfg.Token, cfg.Owner, cfg.Repo); err != nil {
			return err
		}
	}

	return executeWait(ctx, cfg, bc.GitHubClient, bc.Outputs)
}

// executeWait runs the poll loop and reports its outcome
func executeWait(ctx context.Context, cfg *waiter.PollConfig, fetcher waiter.Fetcher, outputs actions.OutputWriter) error {
	slog.Info("Waiting for check run",
		"check", cfg.CheckName,
		"repository", cfg.Owner+"/"+cfg.Repo,
		"ref", cfg.Ref,
		"interval", cfg.Interval)

	outcome, err := waiter.New(fetcher, outputs).Wait(ctx, cfg)
	if outcome != nil {
		if summaryErr := outputs.WriteSummary(waiter.Summary(cfg, outcome)); summaryErr != nil {
			slog.Warn("Failed to write job summary", "error", summaryErr)
		}
		commands.DisplayOutcome(cfg.CheckName, outcome.Conclusion, outcome.Polls, cfg.Accepts(outcome.Conclusion))
	}

	return err
}
