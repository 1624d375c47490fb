package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/browserpair/bpsync/internal/backup"
	"github.com/browserpair/bpsync/internal/bookmarks"
	"github.com/browserpair/bpsync/internal/guard"
	"github.com/browserpair/bpsync/internal/orchestrator"
	"github.com/browserpair/bpsync/internal/profile"
	"github.com/browserpair/bpsync/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine state: merge-state age, guard verdicts, backups",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		statePath := filepath.Join(cfg.StateDir, orchestrator.MergeStateName)
		state, err := bookmarks.LoadMergeState(statePath)
		switch {
		case err != nil:
			fmt.Printf("%s Merge state: unreadable (%v)\n", ui.RenderFail("✗"), err)
		case state == nil:
			fmt.Printf("%s Merge state: none (next run is a first sync)\n", ui.RenderWarn("⚠"))
		default:
			fmt.Printf("%s Merge state: %d bookmarks, synced %s\n",
				ui.RenderPass("✓"), state.Tree.Count(),
				state.SyncedAt.Local().Format(time.RFC1123))
		}

		mgr := backup.NewManager(filepath.Join(cfg.StateDir, "backups"))
		for _, pc := range []struct{ name, path string }{
			{cfg.ProfileA.Name, cfg.ProfileA.Path},
			{cfg.ProfileB.Name, cfg.ProfileB.Path},
		} {
			p, err := profile.New(pc.name, pc.path)
			if err != nil {
				fmt.Printf("%s Profile %s: %v\n", ui.RenderFail("✗"), pc.name, err)
				continue
			}
			verdict, err := guard.CanOperate(p)
			switch {
			case err != nil:
				fmt.Printf("%s Profile %s: probe failed (%v)\n", ui.RenderFail("✗"), p.Name, err)
			case verdict.Clear:
				fmt.Printf("%s Profile %s: clear %s\n", ui.RenderPass("✓"), p.Name,
					ui.RenderDim("(last modified "+p.LastModified().Local().Format(time.RFC1123)+")"))
			default:
				fmt.Printf("%s Profile %s: blocked — %s\n", ui.RenderWarn("⚠"), p.Name, verdict.Reason)
			}

			artifacts, err := mgr.List(p.Name)
			if err != nil {
				fmt.Printf("   backups: %v\n", err)
				continue
			}
			fmt.Printf("   backups: %d artifact(s)\n", len(artifacts))
		}
	},
}
