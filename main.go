// package main is the entry point for the check-waiter tool
package main

import (
	"log/slog"
	"os"

	configcmd "github.com/alan/check-waiter/cmd/config"
	delaycmd "github.com/alan/check-waiter/cmd/delay"
	"github.com/alan/check-waiter/cmd/wait"
	"github.com/alan/check-waiter/internal/actions"
	"github.com/alan/check-waiter/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	var configFile string
	var logLevel string
	var logFormat string

	rootCmd := &cobra.Command{
		Use:   "check-waiter",
		Short: "Wait for GitHub check runs from CI",
		Long: `check-waiter blocks a CI step until a named GitHub check run completes,
then reports its conclusion as step outputs and fails unless the conclusion
is one of the expected ones. It runs as a GitHub Action or locally.`,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogger(logLevel, logFormat)
		},
	}

	defaultLevel := "info"
	if actions.DebugEnabled() {
		defaultLevel = "debug"
	}

	// Add global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "check-waiter.yaml", "Defaults file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", defaultLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&logFormat, "log-format", "f", "text", "Log format (text, json)")

	rootCmd.AddCommand(wait.NewWaitCmd(&configFile, config.LoadOptionalConfig))
	rootCmd.AddCommand(delaycmd.NewDelayCmd(&configFile, config.LoadOptionalConfig))
	rootCmd.AddCommand(configcmd.NewConfigCmd(&configFile, config.LoadConfig, config.SaveConfig))

	if err := rootCmd.Execute(); err != nil {
		actions.SetFailed(os.Stdout, err)
		os.Exit(1)
	}
}

func setupLogger(level, format string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}

	slog.SetDefault(slog.New(handler))
}
