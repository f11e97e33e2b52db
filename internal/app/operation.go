package app

import "time"

// opIDLayout formats the start time of a CLI invocation. Every log line of
// the invocation carries it, so one run can be grepped out of jasper.log.
const opIDLayout = "20060102T150405Z"

// Operation tracks a single CLI invocation.
type Operation struct {
	ID        string
	Name      string
	StartedAt time.Time
	Status    string // "running", "success" or "error"
}

// NewOperation starts an operation named after the CLI command.
func NewOperation(name string, now time.Time) *Operation {
	now = now.UTC()
	return &Operation{
		ID:        now.Format(opIDLayout),
		Name:      name,
		StartedAt: now,
		Status:    "running",
	}
}

// Finish records the outcome and returns how long the operation ran.
func (op *Operation) Finish(err error, now time.Time) time.Duration {
	op.Status = "success"
	if err != nil {
		op.Status = "error"
	}
	return now.Sub(op.StartedAt)
}

// Done returns true once Finish has been called.
func (op *Operation) Done() bool {
	return op.Status != "running"
}
