// Package cmd provides the command-line interface of the protocol engine
// simulator.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"
)

// EnvPrefix is the prefix of the environment variables that provide flag
// defaults. The flag --net-latency is read from PROTOENGINE_NET_LATENCY.
const EnvPrefix = "PROTOENGINE_"

var envFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "protoengine",
	Short: "Protoengine simulates directory-based cache coherence engines.",
	Long: `Protoengine simulates the Home and Remote protocol engines of a ` +
		`directory-based cache coherence system. It runs microcode protocols ` +
		`on a set of nodes with synthetic CPUs and inspects microcode files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}

		return applyEnv(cmd.Flags())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"File with "+EnvPrefix+"* variables that set flag defaults.")
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

// EnvName returns the environment variable that sets the default of a flag.
func EnvName(flagName string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// applyEnv sets the flags that are not given on the command line from the
// environment.
func applyEnv(flags *pflag.FlagSet) error {
	var err error

	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}

		value, ok := os.LookupEnv(EnvName(f.Name))
		if !ok {
			return
		}

		if setErr := flags.Set(f.Name, value); setErr != nil {
			err = fmt.Errorf("%s: %w", EnvName(f.Name), setErr)
		}
	})

	return err
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
