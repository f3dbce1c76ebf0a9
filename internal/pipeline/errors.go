package pipeline

import "fmt"

// StageError wraps any error surfaced by one of the four stages with
// the stage name that produced it, so the driver can report "which
// stage failed" without each stage package knowing about the others
// (spec.md §7's per-stage error taxonomy, unified at the orchestration
// layer).
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// FormatError is raised for a CLI -f value the renderer doesn't know,
// or an output path that can't be written.
type FormatError struct {
	Detail string
}

func (e *FormatError) Error() string { return "pipeline: " + e.Detail }
