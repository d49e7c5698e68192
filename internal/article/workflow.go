package article

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Status is the lifecycle state of one step within a run.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// StepError reports which step aborted a workflow run.
type StepError struct {
	StepID string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q: %v", e.StepID, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Step is one unit of work. Needs lists the IDs of the steps whose
// results this step reads; the engine rejects access to anything else
// so data flow stays explicit.
type Step struct {
	ID    string
	Needs []string
	Run   func(ctx context.Context, run *Run) (any, error)
}

// Workflow is an ordered set of steps forming a DAG. Steps are added
// in dependency order: every Need must name a previously added step,
// which makes cycles impossible by construction.
type Workflow struct {
	name  string
	steps []Step
	byID  map[string]int
}

// NewWorkflow creates an empty named workflow.
func NewWorkflow(name string) *Workflow {
	return &Workflow{
		name: name,
		byID: make(map[string]int),
	}
}

// Add appends a step. The ID must be unique and every dependency must
// already be present.
func (w *Workflow) Add(step Step) error {
	if step.ID == "" {
		return fmt.Errorf("workflow %q: step ID is empty", w.name)
	}
	if step.Run == nil {
		return fmt.Errorf("workflow %q: step %q has no run function", w.name, step.ID)
	}
	if _, exists := w.byID[step.ID]; exists {
		return fmt.Errorf("workflow %q: duplicate step %q", w.name, step.ID)
	}
	for _, need := range step.Needs {
		if _, ok := w.byID[need]; !ok {
			return fmt.Errorf("workflow %q: step %q needs unknown step %q", w.name, step.ID, need)
		}
	}
	w.byID[step.ID] = len(w.steps)
	w.steps = append(w.steps, step)
	return nil
}

// Run is the state of one workflow execution: per-step status and the
// results produced so far. Steps read predecessor results through
// Result, which enforces the declared dependencies.
type Run struct {
	ID uuid.UUID

	results map[string]any
	status  map[string]Status
	allowed map[string]bool
	current string
}

// Status returns the state of the named step, or StatusPending for an
// unknown ID.
func (r *Run) Status(stepID string) Status {
	if s, ok := r.status[stepID]; ok {
		return s
	}
	return StatusPending
}

// Result returns the output of a completed step. While a step is
// running it may only read results it declared in Needs; once the run
// has finished, any stored result is readable.
func (r *Run) Result(stepID string) (any, error) {
	if r.current != "" && !r.allowed[stepID] {
		return nil, fmt.Errorf("step %q did not declare a dependency on %q", r.current, stepID)
	}
	out, ok := r.results[stepID]
	if !ok {
		return nil, fmt.Errorf("step %q has no result", stepID)
	}
	return out, nil
}

// Result returns the typed output of a predecessor step within run.
func Result[T any](run *Run, stepID string) (T, error) {
	var zero T
	out, err := run.Result(stepID)
	if err != nil {
		return zero, err
	}
	typed, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("step %q result is %T, not %T", stepID, out, zero)
	}
	return typed, nil
}

// Execute runs every step in order. The first failure marks the step
// failed and aborts the run; the partial Run is returned alongside the
// error so callers can inspect step states.
func (w *Workflow) Execute(ctx context.Context) (*Run, error) {
	run := &Run{
		ID:      uuid.New(),
		results: make(map[string]any, len(w.steps)),
		status:  make(map[string]Status, len(w.steps)),
	}
	for _, step := range w.steps {
		run.status[step.ID] = StatusPending
	}

	for _, step := range w.steps {
		if err := ctx.Err(); err != nil {
			return run, fmt.Errorf("workflow %q canceled before step %q: %w", w.name, step.ID, err)
		}

		run.status[step.ID] = StatusRunning
		run.current = step.ID
		run.allowed = make(map[string]bool, len(step.Needs))
		for _, need := range step.Needs {
			run.allowed[need] = true
		}

		out, err := step.Run(ctx, run)
		run.current, run.allowed = "", nil
		if err != nil {
			run.status[step.ID] = StatusFailed
			return run, &StepError{StepID: step.ID, Err: err}
		}
		run.results[step.ID] = out
		run.status[step.ID] = StatusSuccess
	}
	return run, nil
}
