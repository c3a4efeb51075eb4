package models

import "fmt"

// MaxDiagnostics bounds the number of diagnostic messages kept per outcome.
// Errored still counts every failure.
const MaxDiagnostics = 1000

// Outcome is the tally of one copy invocation. It is a value type; build it
// with a Tally and treat it as immutable afterwards.
type Outcome struct {
	Copied         int      `json:"copied"`
	NotFound       int      `json:"not_found"`
	NotInWorkspace int      `json:"not_in_workspace"`
	Skipped        int      `json:"skipped"`
	Errored        int      `json:"errored"`
	Diagnostics    []string `json:"diagnostics,omitempty"`
}

// Summary renders the single user-facing line for the outcome.
func (o Outcome) Summary() string {
	return fmt.Sprintf("%d copied, %d not in workspace, %d not found, %d with I/O error",
		o.Copied, o.NotInWorkspace, o.NotFound, o.Errored)
}

// Processed is the number of candidates that received a classification.
func (o Outcome) Processed() int {
	return o.Copied + o.NotFound + o.NotInWorkspace + o.Errored
}

// Tally accumulates counts while a copy invocation runs.
type Tally struct {
	o Outcome
}

func (t *Tally) Copied()         { t.o.Copied++ }
func (t *Tally) NotFound()       { t.o.NotFound++ }
func (t *Tally) NotInWorkspace() { t.o.NotInWorkspace++ }
func (t *Tally) Skipped()        { t.o.Skipped++ }

// Errorf records a diagnostic and counts the candidate as errored.
func (t *Tally) Errorf(format string, args ...any) {
	t.o.Errored++
	t.note(fmt.Sprintf(format, args...))
}

func (t *Tally) note(msg string) {
	if len(t.o.Diagnostics) < MaxDiagnostics {
		t.o.Diagnostics = append(t.o.Diagnostics, msg)
	}
}

// Record adds one single-file result.
func (t *Tally) Record(r FileResult) {
	switch r.Status {
	case StatusCopied:
		t.Copied()
	case StatusNotFound:
		t.NotFound()
	case StatusNotInWorkspace:
		t.NotInWorkspace()
	default:
		t.Errorf("%s", r.Diagnostic)
	}
}

// Merge adds every count and diagnostic of o.
func (t *Tally) Merge(o Outcome) {
	t.o.Copied += o.Copied
	t.o.NotFound += o.NotFound
	t.o.NotInWorkspace += o.NotInWorkspace
	t.o.Skipped += o.Skipped
	t.o.Errored += o.Errored
	for _, d := range o.Diagnostics {
		t.note(d)
	}
}

// Outcome returns a snapshot; later Tally updates do not affect it.
func (t *Tally) Outcome() Outcome {
	out := t.o
	if t.o.Diagnostics != nil {
		out.Diagnostics = append([]string(nil), t.o.Diagnostics...)
	}
	return out
}
