package solver

import (
	"context"
	"time"

	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
)

// Status is the terminal state of a solve attempt. TimedOut means the time
// budget expired without a usable incumbent; it is distinct from Infeasible.
type Status int

const (
	StatusOptimal Status = iota
	StatusFeasible
	StatusInfeasible
	StatusInvalid // malformed model, always a defect
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusInvalid:
		return "INVALID"
	case StatusTimedOut:
		return "TIMED_OUT"
	}
	return "UNKNOWN"
}

// Usable reports whether the outcome carries an assignment worth extracting.
func (s Status) Usable() bool {
	return s == StatusOptimal || s == StatusFeasible
}

type Options struct {
	TimeBudget time.Duration
	Workers    int32
	Seed       int32
}

type Outcome struct {
	Status    Status
	Response  *cmpb.CpSolverResponse
	WallTime  time.Duration
	Objective float64
}

// Solver is a blocking, stateless entry into the external CP-SAT search.
// Cancellation beyond the time budget is not supported; ctx is only consulted
// before the call starts.
type Solver interface {
	Solve(ctx context.Context, model *cmpb.CpModelProto, opts Options) (Outcome, error)
}
