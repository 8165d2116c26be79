package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/alan/check-waiter/cmd"
	"github.com/alan/check-waiter/internal/actions"
	"github.com/alan/check-waiter/internal/github"
	"github.com/spf13/pflag"
)

// Input names shared by the commands and the action metadata
const (
	InputCheckName           = "check-name"
	InputRef                 = "ref"
	InputOwner               = "owner"
	InputRepo                = "repo"
	InputInterval            = "interval"
	InputExpectedConclusions = "expected-conclusions"
	InputGitHubToken         = "github-token"
	InputMilliseconds        = "milliseconds"
)

// BaseCommand provides common fields and initialization for all commands
type BaseCommand struct {
	ConfigFile   *string
	LoadConfig   func(string) (*cmd.Config, error)
	Config       *cmd.Config
	Inputs       *actions.Inputs
	Outputs      actions.OutputWriter
	GitHubClient *github.Client
}

// Init loads the defaults file, binds the named inputs and selects the output writer
func (bc *BaseCommand) Init(flags *pflag.FlagSet, inputNames ...string) error {
	configFile := ""
	if bc.ConfigFile != nil {
		configFile = *bc.ConfigFile
	}

	config, err := bc.LoadConfig(configFile)
	if err != nil {
		return err
	}
	bc.Config = config

	bc.Inputs = actions.NewInputs()
	if err := bc.Inputs.Bind(flags, inputNames...); err != nil {
		return err
	}
	bc.applyConfigDefaults()

	if bc.Outputs == nil {
		bc.Outputs = actions.NewOutputWriterFromEnv()
	}

	return nil
}

// applyConfigDefaults registers values from the defaults file as input fallbacks
func (bc *BaseCommand) applyConfigDefaults() {
	bc.Inputs.SetDefault(InputOwner, bc.Config.Owner)
	bc.Inputs.SetDefault(InputRepo, bc.Config.Repo)
	bc.Inputs.SetDefault(InputRef, bc.Config.Ref)
	bc.Inputs.SetDefault(InputCheckName, bc.Config.CheckName)
	bc.Inputs.SetDefault(InputInterval, bc.Config.Interval)
	bc.Inputs.SetDefault(InputExpectedConclusions, bc.Config.ExpectedConclusionsInput())
}

// GitHubToken returns the github-token input, falling back to GITHUB_TOKEN
func (bc *BaseCommand) GitHubToken() (string, error) {
	return getGitHubToken(bc.Inputs.Get(InputGitHubToken))
}

// InitGitHubClient creates a GitHub client bound to owner/repo
func (bc *BaseCommand) InitGitHubClient(ctx context.Context, token, owner, repo string) error {
	client, err := github.NewClient(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}
	bc.GitHubClient = client.WithRepository(owner, repo)
	return nil
}

// getGitHubToken prefers the github-token input and falls back to GITHUB_TOKEN
func getGitHubToken(input string) (string, error) {
	if input != "" {
		return input, nil
	}
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return "", fmt.Errorf("github-token input or GITHUB_TOKEN environment variable is required")
	}
	return token, nil
}
