// Package cmd provides the command-line interface of sc2melee.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/sc2melee/config"
)

var (
	envFile  string
	logLevel string
	cfg      config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sc2melee",
	Short: "sc2melee runs games between bots on local game instances.",
	Long: `sc2melee launches game instances, connects bots to them, and ` +
		`plays a series of games, either between two bots or against the ` +
		`built-in AI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}

		var err error
		cfg, err = config.Load(files...)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("log-level") {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}

			cfg.LogLevel = level
		}

		logrus.SetLevel(cfg.LogLevel)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "",
		"Read the configuration from this file instead of .env")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: trace, debug, info, warn, or error")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
