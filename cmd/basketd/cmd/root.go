package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"
)

// Persistent flag names. Each can also be set through a BASKET_ prefixed
// environment variable or a key of the same name in the scenario file.
const (
	FlagConfig    = "config"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
	FlagOutput    = "output"

	EnvPrefix = "BASKET"
)

// NewRootCmd creates the basketd root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "basketd",
		Short: "Basket module simulator and tooling",
		Long: `basketd drives the basket module against in-process bank, exchange and issuer
collaborators. Scenarios are YAML files listing baskets, funded holders and deposit or
redeem steps.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())
		},
	}

	addPersistentFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		SimulateCmd(),
		ValidateBasketCmd(),
		AllocateCmd(),
	)

	return rootCmd
}

func addPersistentFlags(fs *pflag.FlagSet) {
	fs.String(FlagConfig, "", "path to a YAML scenario file")
	fs.String(FlagLogLevel, zerolog.InfoLevel.String(), "log level (trace|debug|info|warn|error)")
	fs.String(FlagLogFormat, "plain", "log format (plain|json)")
	fs.StringP(FlagOutput, "o", "json", "result format (json|yaml)")
}

// loadConfig builds a viper instance from the command flags, the environment
// and, when given, the scenario file.
func loadConfig(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	if path := v.GetString(FlagConfig); path != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read scenario %s: %w", path, err)
		}
	}
	return v, nil
}

// newLogger returns a stderr logger honoring the configured level and format.
func newLogger(v *viper.Viper, w io.Writer) (log.Logger, error) {
	level, err := zerolog.ParseLevel(v.GetString(FlagLogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FlagLogLevel, err)
	}
	opts := []log.Option{log.LevelOption(level)}
	switch v.GetString(FlagLogFormat) {
	case "json":
		opts = append(opts, log.OutputJSONOption())
	case "plain", "":
		opts = append(opts, log.ColorOption(false))
	default:
		return nil, fmt.Errorf("invalid %s %q", FlagLogFormat, v.GetString(FlagLogFormat))
	}
	if w == nil {
		w = os.Stderr
	}
	return log.NewLogger(w, opts...), nil
}

// writeResult encodes out according to the output flag.
func writeResult(cmd *cobra.Command, v *viper.Viper, out interface{}) error {
	bz, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	switch v.GetString(FlagOutput) {
	case "yaml":
		bz, err = yaml.JSONToYAML(bz)
		if err != nil {
			return err
		}
	case "json", "":
		bz = append(bz, '\n')
	default:
		return fmt.Errorf("invalid %s %q", FlagOutput, v.GetString(FlagOutput))
	}
	_, err = cmd.OutOrStdout().Write(bz)
	return err
}
