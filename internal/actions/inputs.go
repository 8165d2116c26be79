package actions

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Inputs resolves named step inputs. For each input the first available
// source wins: an explicitly set flag, the INPUT_<NAME> environment variable,
// a default registered with SetDefault, then the flag's own default.
type Inputs struct {
	v *viper.Viper
}

// NewInputs creates an empty input set
func NewInputs() *Inputs {
	return &Inputs{v: viper.New()}
}

// InputEnvName returns the environment variable the runner uses for an input
func InputEnvName(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

// Bind registers inputs backed by the flag of the same name and its environment variable
func (in *Inputs) Bind(flags *pflag.FlagSet, names ...string) error {
	for _, name := range names {
		if flag := flags.Lookup(name); flag != nil {
			if err := in.v.BindPFlag(name, flag); err != nil {
				return fmt.Errorf("failed to bind flag for input %s: %w", name, err)
			}
		}
		if err := in.v.BindEnv(name, InputEnvName(name)); err != nil {
			return fmt.Errorf("failed to bind environment for input %s: %w", name, err)
		}
	}
	return nil
}

// SetDefault registers a fallback value for an input; empty values are ignored
func (in *Inputs) SetDefault(name, value string) {
	if value == "" {
		return
	}
	in.v.SetDefault(name, value)
}

// Get returns the resolved, whitespace-trimmed value of an input
func (in *Inputs) Get(name string) string {
	return strings.TrimSpace(in.v.GetString(name))
}
