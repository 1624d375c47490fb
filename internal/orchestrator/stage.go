package orchestrator

// Stage is one state of the run state machine. Transitions are
// strictly sequential; Failed is an absorbing state reachable from any
// non-terminal stage.
type Stage int

const (
	StageIdle Stage = iota
	StageGuarding
	StageBackingUp
	StageLoading
	StageMergingHistory
	StageMergingBookmarks
	StageSyncingTabs
	StageCommitting
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageGuarding:
		return "guarding"
	case StageBackingUp:
		return "backing-up"
	case StageLoading:
		return "loading"
	case StageMergingHistory:
		return "merging-history"
	case StageMergingBookmarks:
		return "merging-bookmarks"
	case StageSyncingTabs:
		return "syncing-tabs"
	case StageCommitting:
		return "committing"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// Exit codes. A failed run exits with a code that names the stage it
// failed in, so the scheduler can tell outcomes apart without parsing
// logs.
const (
	ExitDone         = 0
	ExitLockHeld     = 3
	ExitGuardBlocked = 4
	exitFailedBase   = 10
)

// exitCode maps a failing stage to its exit code (idle=10 through
// committing=17).
func (s Stage) exitCode() int {
	return exitFailedBase + int(s)
}

// Outcome classifies how a run ended.
type Outcome string

const (
	OutcomeDone         Outcome = "done"
	OutcomeSkippedLock  Outcome = "skipped-lock-held"
	OutcomeSkippedGuard Outcome = "skipped-guard-blocked"
	OutcomeFailed       Outcome = "failed"
)
