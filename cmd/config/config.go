// Package config implements the config command for writing the check-waiter defaults file.
package config

import (
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"

	"github.com/alan/check-waiter/cmd"
	"github.com/alan/check-waiter/internal/waiter"
	"github.com/spf13/cobra"
)

// configValues holds the values given on the command line
type configValues struct {
	owner               string
	repo                string
	ref                 string
	checkName           string
	interval            string
	expectedConclusions []string
}

// detectRepo is replaced in tests
var detectRepo = detectGitRepoInfo

// NewConfigCmd creates and returns the config command
func NewConfigCmd(globalConfigFile *string, loadConfig func(string) (*cmd.Config, error), saveConfig func(string, *cmd.Config) error) *cobra.Command {
	values := &configValues{}

	cobraCmd := &cobra.Command{
		Use:   "config",
		Short: "Initialize or update the check-waiter.yaml defaults file",
		Long: `Config writes a check-waiter.yaml file holding default inputs for the wait
command, so local runs need fewer flags.

When run from a git repository, the owner, repository and current branch are
detected from the origin remote. Values already in the file are kept unless
overridden by a flag.`,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigWithGitDetection(*globalConfigFile, values, loadConfig, saveConfig)
		},
	}

	addConfigFlags(cobraCmd, values)

	return cobraCmd
}

// addConfigFlags adds all flags to the config command
func addConfigFlags(cobraCmd *cobra.Command, values *configValues) {
	cobraCmd.Flags().StringVarP(&values.owner, "owner", "o", "", "Repository owner (auto-detected from git if available)")
	cobraCmd.Flags().StringVarP(&values.repo, "repo", "r", "", "Repository name (auto-detected from git if available)")
	cobraCmd.Flags().StringVar(&values.ref, "ref", "", "Ref to wait on (auto-detected from the current branch if available)")
	cobraCmd.Flags().StringVarP(&values.checkName, "check-name", "n", "", "Name of the check run to wait for")
	cobraCmd.Flags().StringVarP(&values.interval, "interval", "i", "", "Seconds between polls")
	cobraCmd.Flags().StringSliceVarP(&values.expectedConclusions, "expected-conclusions", "e", nil, "Conclusions that count as success")
}

// runConfigWithGitDetection fills missing values from the existing file and from git
func runConfigWithGitDetection(configFile string, values *configValues, loadConfig func(string) (*cmd.Config, error), saveConfig func(string, *cmd.Config) error) error {
	existing, _ := loadOrCreateConfig(configFile, loadConfig)

	final := *values
	if final.owner == "" {
		final.owner = existing.Owner
	}
	if final.repo == "" {
		final.repo = existing.Repo
	}
	if final.ref == "" {
		final.ref = existing.Ref
	}

	if final.owner == "" || final.repo == "" || final.ref == "" {
		if gitInfo, err := detectRepo(); err == nil {
			if final.owner == "" {
				final.owner = gitInfo.Owner
				slog.Info("Auto-detected owner", "owner", final.owner)
			}
			if final.repo == "" {
				final.repo = gitInfo.Repo
				slog.Info("Auto-detected repository", "repo", final.repo)
			}
			if final.ref == "" {
				final.ref = gitInfo.Branch
				slog.Info("Auto-detected ref", "ref", final.ref)
			}
		} else {
			slog.Debug("Git detection unavailable", "error", err)
		}
	}

	if final.owner == "" {
		return fmt.Errorf("owner is required (use --owner flag or run from a git repository)")
	}
	if final.repo == "" {
		return fmt.Errorf("repository is required (use --repo flag or run from a git repository)")
	}

	return runConfig(configFile, &final, loadConfig, saveConfig)
}

func runConfig(configFile string, values *configValues, loadConfig func(string) (*cmd.Config, error), saveConfig func(string, *cmd.Config) error) error {
	if err := validateValues(values); err != nil {
		return err
	}

	config, isUpdate := loadOrCreateConfig(configFile, loadConfig)
	updateConfigWithProvidedValues(config, values)

	if err := saveConfig(configFile, config); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	displayConfigSuccess(configFile, config, isUpdate)
	return nil
}

// validateValues rejects values the wait command would refuse later
func validateValues(values *configValues) error {
	if values.interval != "" {
		if _, err := waiter.ParseInterval(values.interval); err != nil {
			return err
		}
	}
	if len(values.expectedConclusions) > 0 {
		if _, err := waiter.ParseConclusions(strings.Join(values.expectedConclusions, ",")); err != nil {
			return err
		}
	}
	return nil
}

// displayConfigSuccess shows the configuration success message
func displayConfigSuccess(configFile string, config *cmd.Config, isUpdate bool) {
	action := "initialized"
	if isUpdate {
		action = "updated"
	}
	fmt.Printf("Successfully %s %s with:\n", action, configFile)
	fmt.Printf("  Repository: %s/%s\n", config.Owner, config.Repo)
	if config.Ref != "" {
		fmt.Printf("  Ref: %s\n", config.Ref)
	}
	if config.CheckName != "" {
		fmt.Printf("  Check: %s\n", config.CheckName)
	}
	if config.Interval != "" {
		fmt.Printf("  Interval: %ss\n", config.Interval)
	}
	if len(config.ExpectedConclusions) > 0 {
		fmt.Printf("  Expected conclusions: %s\n", config.ExpectedConclusionsInput())
	}
}

// loadOrCreateConfig loads existing config or creates a new one
func loadOrCreateConfig(configFile string, loadConfig func(string) (*cmd.Config, error)) (*cmd.Config, bool) {
	if config, err := loadConfig(configFile); err == nil {
		return config, true
	}
	return &cmd.Config{}, false
}

// updateConfigWithProvidedValues updates config with any non-empty provided values
func updateConfigWithProvidedValues(config *cmd.Config, values *configValues) {
	if values.owner != "" {
		config.Owner = values.owner
	}
	if values.repo != "" {
		config.Repo = values.repo
	}
	if values.ref != "" {
		config.Ref = values.ref
	}
	if values.checkName != "" {
		config.CheckName = values.checkName
	}
	if values.interval != "" {
		config.Interval = values.interval
	}
	if len(values.expectedConclusions) > 0 {
		conclusions := make([]string, 0, len(values.expectedConclusions))
		for _, c := range values.expectedConclusions {
			conclusions = append(conclusions, strings.TrimSpace(c))
		}
		config.ExpectedConclusions = conclusions
	}
}

// GitRepoInfo holds detected git repository information
type GitRepoInfo struct {
	Owner  string
	Repo   string
	Branch string
}

// detectGitRepoInfo attempts to detect git repository information
func detectGitRepoInfo() (*GitRepoInfo, error) {
	if !isGitRepository() {
		return nil, fmt.Errorf("not in a git repository")
	}

	owner, repo, err := parseGitRemote()
	if err != nil {
		return nil, fmt.Errorf("failed to parse git remote: %w", err)
	}

	// A detached HEAD has no branch; the ref is then left for the user to supply
	branch, _ := getCurrentBranch()

	return &GitRepoInfo{
		Owner:  owner,
		Repo:   repo,
		Branch: branch,
	}, nil
}

// isGitRepository checks if current directory is in a git repository
func isGitRepository() bool {
	gitCmd := exec.Command("git", "rev-parse", "--git-dir")
	return gitCmd.Run() == nil
}

// parseGitRemote extracts owner and repo from git remote origin
func parseGitRemote() (string, string, error) {
	gitCmd := exec.Command("git", "remote", "get-url", "origin")
	output, err := gitCmd.Output()
	if err != nil {
		return "", "", err
	}

	return parseRemoteURL(strings.TrimSpace(string(output)))
}

var (
	sshRemote   = regexp.MustCompile(`^(?:ssh://)?git@([^:/]+)[:/]([^/]+)/([^/]+?)(?:\.git)?/?$`)
	httpsRemote = regexp.MustCompile(`^https://(?:[^@/]+@)?([^/]+)/([^/]+)/([^/]+?)(?:\.git)?/?$`)
)

// parseRemoteURL extracts owner and repo from SSH and HTTPS remote URLs,
// including GitHub Enterprise hosts
func parseRemoteURL(remoteURL string) (string, string, error) {
	for _, re := range []*regexp.Regexp{sshRemote, httpsRemote} {
		if matches := re.FindStringSubmatch(remoteURL); len(matches) == 4 {
			return matches[2], matches[3], nil
		}
	}

	return "", "", fmt.Errorf("unable to parse GitHub remote URL: %s", remoteURL)
}

// getCurrentBranch gets the current git branch name
func getCurrentBranch() (string, error) {
	gitCmd := exec.Command("git", "branch", "--show-current")
	output, err := gitCmd.Output()
	if err != nil {
		return "", err
	}

	branch := strings.TrimSpace(string(output))
	if branch == "" {
		return "", fmt.Errorf("unable to determine current branch")
	}

	return branch, nil
}
