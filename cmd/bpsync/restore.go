package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/browserpair/bpsync/internal/backup"
	"github.com/browserpair/bpsync/internal/profile"
	"github.com/browserpair/bpsync/internal/ui"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <profile-name> [store]",
	Short: "Restore a profile's stores from the most recent backup",
	Long: `Copy the newest backup artifacts back over the live stores.

This is the manual recovery path; the engine never restores on its
own. With a store argument (history, bookmarks, session) only that
store is restored. Close the browser first.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		name := args[0]
		var onlyStore string
		if len(args) == 2 {
			onlyStore = args[1]
		}

		var p *profile.Profile
		switch name {
		case cfg.ProfileA.Name:
			p, err = profile.New(cfg.ProfileA.Name, cfg.ProfileA.Path)
		case cfg.ProfileB.Name:
			p, err = profile.New(cfg.ProfileB.Name, cfg.ProfileB.Path)
		default:
			err = fmt.Errorf("unknown profile %q (configured: %s, %s)", name, cfg.ProfileA.Name, cfg.ProfileB.Name)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		mgr := backup.NewManager(filepath.Join(cfg.StateDir, "backups"))
		artifacts, err := mgr.List(p.Name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(artifacts) == 0 {
			fmt.Fprintf(os.Stderr, "Error: no backups recorded for %s\n", p.Name)
			os.Exit(1)
		}

		// Newest artifact per store; List is ordered oldest first.
		latest := make(map[string]*backup.Artifact)
		for _, a := range artifacts {
			latest[a.Store] = a
		}

		restored := 0
		for store, a := range latest {
			if onlyStore != "" && store != onlyStore {
				continue
			}
			src, err := p.StorePath(store)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			a.Source = src
			if err := mgr.Restore(a); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s Restored %s from %s\n", ui.RenderPass("✓"), store,
				a.TakenAt.Local().Format("2006-01-02 15:04:05"))
			restored++
		}
		if restored == 0 {
			fmt.Fprintf(os.Stderr, "Error: no backup found for store %q\n", onlyStore)
			os.Exit(1)
		}
	},
}
