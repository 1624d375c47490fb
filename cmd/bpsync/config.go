package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/browserpair/bpsync/internal/config"
	"github.com/browserpair/bpsync/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Run: func(cmd *cobra.Command, args []string) {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.WriteDefault(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Wrote %s\n", ui.RenderPass("✓"), path)
		fmt.Printf("   Set profile_a.path and profile_b.path before the first sync.\n")
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
