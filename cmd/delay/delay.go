// Package delay implements the delay command for pausing a workflow step.
package delay

import (
	"context"
	"fmt"

	"github.com/alan/check-waiter/cmd"
	"github.com/alan/check-waiter/internal/commands"
	"github.com/alan/check-waiter/internal/delay"
	"github.com/spf13/cobra"
)

// NewDelayCmd creates and returns the delay command
func NewDelayCmd(globalConfigFile *string, loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	delayCmd := &cobra.Command{
		Use:   "delay [milliseconds]",
		Short: "Wait a number of milliseconds and report the end time",
		Long: `Pause for the given number of milliseconds, then set the "time" output
to the wall-clock time the pause ended. Useful for debugging workflow timing.

The duration can be given as an argument, the --milliseconds flag or the
milliseconds action input.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			bc := &commands.BaseCommand{
				ConfigFile: globalConfigFile,
				LoadConfig: loadConfig,
			}
			if err := bc.Init(cobraCmd.Flags(), commands.InputMilliseconds); err != nil {
				return err
			}

			raw := bc.Inputs.Get(commands.InputMilliseconds)
			if len(args) == 1 {
				raw = args[0]
			}
			return runDelay(cobraCmd.Context(), bc, raw)
		},
	}

	delayCmd.Flags().StringP(commands.InputMilliseconds, "m", "", "Milliseconds to wait")

	return delayCmd
}

func runDelay(ctx context.Context, bc *commands.BaseCommand, raw string) error {
	ms, err := delay.ParseMilliseconds(raw)
	if err != nil {
		return err
	}

	end, err := delay.New(bc.Outputs).Run(ctx, ms)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Waited %d milliseconds, finished at %s\n", ms, end.Format(delay.TimeLayout))
	return nil
}
