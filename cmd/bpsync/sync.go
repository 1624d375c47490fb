package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/browserpair/bpsync/internal/logging"
	"github.com/browserpair/bpsync/internal/orchestrator"
	"github.com/browserpair/bpsync/internal/profile"
	"github.com/browserpair/bpsync/internal/ui"
)

var dryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync pass between the two profiles",
	Long: `Run the full pipeline: guard, back up, load, merge, commit.

With --dry-run everything up to the commit executes — merges are
computed and logged — but no store is written and the bookmark
ancestor snapshot is not advanced.

Exit codes: 0 done, 3 skipped (another run holds the lock), 4 skipped
(a profile is in use or a previous run left a marker), 10+ failed at
the stage named in the log.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		profA, err := profile.New(cfg.ProfileA.Name, cfg.ProfileA.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		profB, err := profile.New(cfg.ProfileB.Name, cfg.ProfileB.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		logger, closer := logging.New(cfg.Log)
		defer closer.Close()

		start := time.Now()
		res := orchestrator.Run(context.Background(), orchestrator.Options{
			A:        profA,
			B:        profB,
			StateDir: cfg.StateDir,
			DryRun:   dryRun,
			Logger:   logger,
		})

		switch res.Outcome {
		case orchestrator.OutcomeDone:
			label := "Sync complete"
			if dryRun {
				label = "Dry run complete"
			}
			fmt.Printf("%s %s in %v\n", ui.RenderPass("✓"), label, time.Since(start).Round(time.Millisecond))
			fmt.Printf("   History: %d entries (%d only in %s, %d only in %s)\n",
				res.History.Total, res.History.OnlyA, profA.Name, res.History.OnlyB, profB.Name)
			fmt.Printf("   Bookmarks: +%d from %s, +%d from %s, %d deletions propagated\n",
				res.Bookmarks.AddedFromA, profA.Name, res.Bookmarks.AddedFromB, profB.Name, res.Bookmarks.Deleted)
			fmt.Printf("   Tabs: %s\n", res.Tabs)
		case orchestrator.OutcomeSkippedLock:
			fmt.Printf("%s Skipped: %s\n", ui.RenderWarn("⚠"), res.Reason)
		case orchestrator.OutcomeSkippedGuard:
			fmt.Printf("%s Skipped: %s\n", ui.RenderWarn("⚠"), res.Reason)
		default:
			fmt.Fprintf(os.Stderr, "%s Failed at %s: %s\n", ui.RenderFail("✗"), res.FailedStage, res.Reason)
		}
		os.Exit(res.ExitCode())
	},
}

func init() {
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and log merges without committing")
}
