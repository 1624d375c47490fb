// Command bpsync reconciles the browsing state of two browser
// profiles: history and bookmarks converge to their union, the open-
// tab session follows the more recently used profile.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/browserpair/bpsync/internal/config"
)

var version = "dev"

var (
	cfgFile  string
	flagA    string
	flagB    string
	flagAKey string
	flagBKey string
	stateDir string
)

var rootCmd = &cobra.Command{
	Use:     "bpsync",
	Short:   "Two-profile browser state synchronizer",
	Version: version,
	Long: `bpsync runs discrete sync passes between two browser profiles.

History and bookmarks are merged to their union (a persisted ancestor
snapshot lets bookmark deletions propagate instead of resurrecting);
open-tab sessions follow the profile used most recently. Every store
that will change is backed up first, and live stores are only ever
replaced atomically.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&flagA, "profile-a", "", "path of the first profile root")
	rootCmd.PersistentFlags().StringVar(&flagB, "profile-b", "", "path of the second profile root")
	rootCmd.PersistentFlags().StringVar(&flagAKey, "name-a", "", "label for the first profile")
	rootCmd.PersistentFlags().StringVar(&flagBKey, "name-b", "", "label for the second profile")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "engine state directory")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig merges file/env config with command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if flagA != "" {
		cfg.ProfileA.Path = flagA
	}
	if flagB != "" {
		cfg.ProfileB.Path = flagB
	}
	if flagAKey != "" {
		cfg.ProfileA.Name = flagAKey
	}
	if flagBKey != "" {
		cfg.ProfileB.Name = flagBKey
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
	}
	if cfg.ProfileA.Path == "" || cfg.ProfileB.Path == "" {
		return nil, fmt.Errorf("both profile paths are required (--profile-a/--profile-b or config file)")
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
