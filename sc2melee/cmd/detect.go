package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/sc2melee/launcher"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Print the game installation that would be launched.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		install, err := launcher.Detect(cfg.Launcher())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Executable: %s\n", install.Exe)
		fmt.Fprintf(out, "Support:    %s\n", install.Support)
		fmt.Fprintf(out, "Build:      %s\n", install.Build)
		fmt.Fprintf(out, "64-bit:     %t\n", install.X64)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
