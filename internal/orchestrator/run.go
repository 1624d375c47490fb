// Package orchestrator sequences one sync run: guard, back up, load,
// merge, commit, log. One run is a single sequential pipeline with no
// internal parallelism; each stage either completes or moves the run
// to Failed, and prior committed stages are never rolled back (the
// backup artifacts are the recovery path).
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/browserpair/bpsync/internal/backup"
	"github.com/browserpair/bpsync/internal/bookmarks"
	"github.com/browserpair/bpsync/internal/guard"
	"github.com/browserpair/bpsync/internal/history"
	"github.com/browserpair/bpsync/internal/profile"
	"github.com/browserpair/bpsync/internal/runlock"
	"github.com/browserpair/bpsync/internal/session"
	"github.com/browserpair/bpsync/internal/store"
)

// MergeStateName is the persisted bookmark ancestor, the only durable
// cross-run state the engine keeps.
const MergeStateName = "merge-state.json"

// RunLockName is the run-level exclusive lock file.
const RunLockName = "run.lock"

// Options configures one run.
type Options struct {
	A, B *profile.Profile

	// StateDir holds the merge state, the run lock, and (by default)
	// backups.
	StateDir string

	// BackupDir overrides the backup location. Empty means
	// StateDir/backups.
	BackupDir string

	// DryRun executes everything up to Committing and then stops:
	// no store is written and the merge state is not advanced.
	DryRun bool

	Logger *slog.Logger

	// Now is the clock, injectable for tests.
	Now func() time.Time
}

// Result describes a finished run.
type Result struct {
	RunID       string
	Outcome     Outcome
	FailedStage Stage
	Reason      string
	Err         error

	History   history.Stats
	Bookmarks bookmarks.Stats
	Tabs      session.Outcome
	Artifacts []*backup.Artifact

	Started time.Time
	Ended   time.Time
}

// ExitCode maps the outcome to the process exit status.
func (r *Result) ExitCode() int {
	switch r.Outcome {
	case OutcomeDone:
		return ExitDone
	case OutcomeSkippedLock:
		return ExitLockHeld
	case OutcomeSkippedGuard:
		return ExitGuardBlocked
	}
	return r.FailedStage.exitCode()
}

// Run executes the full pipeline for one profile pair.
func Run(ctx context.Context, opts Options) *Result {
	r := &runner{opts: opts, log: opts.Logger, now: opts.Now}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r.run(ctx)
}

type runner struct {
	opts Options
	log  *slog.Logger
	now  func() time.Time
}

func (r *runner) run(ctx context.Context) *Result {
	res := &Result{
		RunID:   uuid.NewString(),
		Started: r.now(),
	}
	log := r.log.With("run_id", res.RunID, "profile_a", r.opts.A.Name, "profile_b", r.opts.B.Name)

	fail := func(stage Stage, err error) *Result {
		res.Outcome = OutcomeFailed
		res.FailedStage = stage
		res.Err = err
		res.Reason = err.Error()
		res.Ended = r.now()
		log.Error("run failed", "stage", stage.String(), "reason", res.Reason)
		return res
	}

	// Idle: take the run lock and read the persisted ancestor.
	lock, err := runlock.Acquire(filepath.Join(r.opts.StateDir, RunLockName))
	if err == runlock.ErrHeld {
		res.Outcome = OutcomeSkippedLock
		res.Reason = "another run holds the lock"
		res.Ended = r.now()
		log.Info("run skipped", "reason", res.Reason)
		return res
	}
	if err != nil {
		return fail(StageIdle, err)
	}
	defer lock.Release()

	mergeStatePath := filepath.Join(r.opts.StateDir, MergeStateName)
	state, err := bookmarks.LoadMergeState(mergeStatePath)
	if err != nil {
		return fail(StageIdle, err)
	}
	var ancestor *bookmarks.Tree
	if state != nil {
		ancestor = state.Tree
	}

	// Guarding: both profiles must be clear; a lopsided sync is worse
	// than no sync, so either side blocking aborts the whole run.
	stageStart := r.now()
	for _, p := range []*profile.Profile{r.opts.A, r.opts.B} {
		verdict, err := guard.CanOperate(p)
		if err != nil {
			return fail(StageGuarding, err)
		}
		if !verdict.Clear {
			res.Outcome = OutcomeSkippedGuard
			res.Reason = verdict.Reason
			res.Ended = r.now()
			log.Warn("run blocked", "stage", StageGuarding.String(), "reason", verdict.Reason)
			return res
		}
	}
	r.emit(log, StageGuarding, stageStart)

	// BackingUp: every store that can be mutated is copied first. No
	// merge proceeds if any backup failed.
	stageStart = r.now()
	mgr := backup.NewManagerWithClock(r.backupDir(), r.now)
	for _, p := range []*profile.Profile{r.opts.A, r.opts.B} {
		for _, s := range []string{profile.StoreHistory, profile.StoreBookmarks, profile.StoreSession} {
			src, err := p.StorePath(s)
			if err != nil {
				return fail(StageBackingUp, err)
			}
			artifact, err := mgr.Backup(p.Name, s, src)
			if err != nil {
				return fail(StageBackingUp, err)
			}
			if artifact != nil {
				res.Artifacts = append(res.Artifacts, artifact)
			}
		}
	}
	r.emit(log, StageBackingUp, stageStart, "artifacts", len(res.Artifacts))

	// Loading: snapshot both profiles into memory.
	stageStart = r.now()
	histA, err := store.LoadHistory(ctx, r.opts.A)
	if err != nil {
		return fail(StageLoading, err)
	}
	histB, err := store.LoadHistory(ctx, r.opts.B)
	if err != nil {
		return fail(StageLoading, err)
	}
	treeA, err := store.LoadBookmarks(r.opts.A)
	if err != nil {
		return fail(StageLoading, err)
	}
	treeB, err := store.LoadBookmarks(r.opts.B)
	if err != nil {
		return fail(StageLoading, err)
	}
	sessA, err := store.LoadSession(r.opts.A)
	if err != nil {
		return fail(StageLoading, err)
	}
	sessB, err := store.LoadSession(r.opts.B)
	if err != nil {
		return fail(StageLoading, err)
	}
	r.emit(log, StageLoading, stageStart,
		"history_a", len(histA), "history_b", len(histB),
		"bookmarks_a", treeA.Count(), "bookmarks_b", treeB.Count())

	// MergingHistory
	stageStart = r.now()
	mergedHist, histStats := history.Merge(histA, histB)
	res.History = histStats
	writeHistA := !history.Equal(histA, mergedHist)
	writeHistB := !history.Equal(histB, mergedHist)
	r.emit(log, StageMergingHistory, stageStart,
		"total", histStats.Total, "only_a", histStats.OnlyA,
		"only_b", histStats.OnlyB, "reconciled", histStats.Reconciled)

	// MergingBookmarks
	stageStart = r.now()
	mergedTree, bmStats, err := bookmarks.Merge(treeA, treeB, ancestor)
	if err != nil {
		return fail(StageMergingBookmarks, err)
	}
	res.Bookmarks = bmStats
	writeTreeA := !treeA.Equal(mergedTree)
	writeTreeB := !treeB.Equal(mergedTree)
	r.emit(log, StageMergingBookmarks, stageStart,
		"added_from_a", bmStats.AddedFromA, "added_from_b", bmStats.AddedFromB,
		"deleted", bmStats.Deleted, "kept", bmStats.Kept)

	// SyncingTabs
	stageStart = r.now()
	election := session.Elect(sessA, sessB)
	res.Tabs = election
	r.emit(log, StageSyncingTabs, stageStart, "election", election.String())

	if r.opts.DryRun {
		res.Outcome = OutcomeDone
		res.Ended = r.now()
		log.Info("dry run complete, nothing committed", "stage", StageDone.String())
		return res
	}

	// Committing: all live-store writes happen here, store by store,
	// each as an atomic replace. A failure leaves the incomplete-run
	// markers behind so the next run's Guard refuses to proceed until
	// someone has looked.
	stageStart = r.now()
	if err := r.placeMarkers(); err != nil {
		return fail(StageCommitting, err)
	}
	if writeHistA {
		if err := store.WriteHistory(ctx, r.opts.A, mergedHist); err != nil {
			return fail(StageCommitting, err)
		}
	}
	if writeHistB {
		if err := store.WriteHistory(ctx, r.opts.B, mergedHist); err != nil {
			return fail(StageCommitting, err)
		}
	}
	if writeTreeA {
		if err := store.WriteBookmarks(r.opts.A, mergedTree); err != nil {
			return fail(StageCommitting, err)
		}
	}
	if writeTreeB {
		if err := store.WriteBookmarks(r.opts.B, mergedTree); err != nil {
			return fail(StageCommitting, err)
		}
	}
	switch election {
	case session.AWins:
		if err := store.WriteSession(r.opts.B, sessA); err != nil {
			return fail(StageCommitting, err)
		}
	case session.BWins:
		if err := store.WriteSession(r.opts.A, sessB); err != nil {
			return fail(StageCommitting, err)
		}
	}
	if err := r.removeMarkers(); err != nil {
		return fail(StageCommitting, err)
	}
	r.emit(log, StageCommitting, stageStart,
		"wrote_history_a", writeHistA, "wrote_history_b", writeHistB,
		"wrote_bookmarks_a", writeTreeA, "wrote_bookmarks_b", writeTreeB)

	// Done: only now does the ancestor advance. A failed run keeps the
	// previous snapshot so the next run retries the three-way merge
	// from the last known-good baseline.
	if err := bookmarks.SaveMergeState(mergeStatePath, mergedTree, r.now()); err != nil {
		return fail(StageCommitting, err)
	}

	res.Outcome = OutcomeDone
	res.Ended = r.now()
	log.Info("run complete", "stage", StageDone.String(),
		"duration", res.Ended.Sub(res.Started).String(),
		"history_total", histStats.Total,
		"bookmarks_total", mergedTree.Count(),
		"tabs", election.String())
	return res
}

func (r *runner) backupDir() string {
	if r.opts.BackupDir != "" {
		return r.opts.BackupDir
	}
	return filepath.Join(r.opts.StateDir, "backups")
}

// emit writes one structured record per completed stage transition.
func (r *runner) emit(log *slog.Logger, stage Stage, started time.Time, attrs ...any) {
	args := append([]any{
		"stage", stage.String(),
		"started", started.Format(time.RFC3339Nano),
		"ended", r.now().Format(time.RFC3339Nano),
		"outcome", "ok",
	}, attrs...)
	log.Info("stage complete", args...)
}

func (r *runner) placeMarkers() error {
	for _, p := range []*profile.Profile{r.opts.A, r.opts.B} {
		content := fmt.Sprintf("bpsync committing since %s\n", r.now().UTC().Format(time.RFC3339))
		if err := os.WriteFile(p.MarkerPath(), []byte(content), 0o644); err != nil {
			return fmt.Errorf("place marker for %s: %w", p.Name, err)
		}
	}
	return nil
}

func (r *runner) removeMarkers() error {
	for _, p := range []*profile.Profile{r.opts.A, r.opts.B} {
		if err := os.Remove(p.MarkerPath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove marker for %s: %w", p.Name, err)
		}
	}
	return nil
}
