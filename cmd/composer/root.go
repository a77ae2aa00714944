package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "COMPOSER"

var (
	cfgFile string
	verbose bool
)

// rootCmd is the application entry point.
var rootCmd = &cobra.Command{
	Use:   "composer",
	Short: "Component container assembly engine",
	Long: `Composer builds a tree of component models from containment profiles,
binds every dependency and stage of every component to a provider, and
brings the assembled components up in dependency order.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "system config file (default is $HOME/.composer/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().String("security", "", "security level: strict, standard, permissive")
	rootCmd.PersistentFlags().Int("max-concurrent", 0, "limit parallel scanning and commissioning (0 means number of CPUs)")

	_ = viper.BindPFlag("security", rootCmd.PersistentFlags().Lookup("security"))
	_ = viper.BindPFlag("max_concurrent", rootCmd.PersistentFlags().Lookup("max-concurrent"))
}

// initConfig wires the environment into viper. COMPOSER_SECURITY and
// COMPOSER_MAX_CONCURRENT override the flag defaults; COMPOSER_CONFIG names
// the system config file when --config is not set.
func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = viper.GetString("config")
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	// Using TextHandler for CLI friendliness
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
