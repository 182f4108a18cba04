package montecarlo

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// RunState is the lifecycle state of an orchestrator run.
type RunState string

// Run states. A run moves from Running to exactly one terminal state.
const (
	StateIdle      RunState = "idle"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateCancelled RunState = "cancelled"
	StateFailed    RunState = "failed"
)

// Progress is a snapshot of a run's trial counters.
type Progress struct {
	RunID     string   `json:"runId,omitempty"`
	State     RunState `json:"state"`
	Completed int      `json:"completed"`
	Failed    int      `json:"failed"`
	Total     int      `json:"total"`
}

// RunContext owns the mutable state of one run. Workers share it by pointer;
// counters are atomic so progress can be read while trials execute.
type RunContext struct {
	ID        string
	Total     int
	StartedAt time.Time

	mu        sync.Mutex
	state     RunState
	completed atomic.Int64
	failed    atomic.Int64
	cancelled atomic.Bool
}

func newRunContext(total int) *RunContext {
	return &RunContext{
		ID:        uuid.NewString(),
		Total:     total,
		StartedAt: time.Now(),
		state:     StateRunning,
	}
}

// State returns the current lifecycle state.
func (rc *RunContext) State() RunState {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.state
}

func (rc *RunContext) finish(state RunState) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.state = state
}

// requestCancel flags the run to stop before its next trial. It reports
// whether the run was still running.
func (rc *RunContext) requestCancel() bool {
	if rc.State() != StateRunning {
		return false
	}
	rc.cancelled.Store(true)
	return true
}

// stopping reports whether no further trials should start.
func (rc *RunContext) stopping(ctx context.Context) bool {
	return rc.cancelled.Load() || ctx.Err() != nil
}

func (rc *RunContext) record(t Trial) {
	rc.completed.Add(1)
	if t.Err != nil {
		rc.failed.Add(1)
	}
}

// Progress returns a snapshot of the run's counters.
func (rc *RunContext) Progress() Progress {
	return Progress{
		RunID:     rc.ID,
		State:     rc.State(),
		Completed: int(rc.completed.Load()),
		Failed:    int(rc.failed.Load()),
		Total:     rc.Total,
	}
}
