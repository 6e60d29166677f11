package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"
	"google.golang.org/protobuf/proto"
)

type cpSatSolver struct{}

func NewCpSatSolver() Solver {
	return &cpSatSolver{}
}

func (solver *cpSatSolver) Solve(ctx context.Context, model *cmpb.CpModelProto, opts Options) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	params := &sppb.SatParameters{}
	if opts.TimeBudget > 0 {
		params.MaxTimeInSeconds = proto.Float64(opts.TimeBudget.Seconds())
	}
	if opts.Workers > 0 {
		params.NumSearchWorkers = proto.Int32(opts.Workers)
	}
	params.RandomSeed = proto.Int32(opts.Seed)

	start := time.Now()
	response, err := cpmodel.SolveCpModelWithParameters(model, params)
	if err != nil {
		return Outcome{}, fmt.Errorf("cp-sat solve failed: %w", err)
	}

	return Outcome{
		Status:    mapStatus(response),
		Response:  response,
		WallTime:  time.Since(start),
		Objective: response.GetObjectiveValue(),
	}, nil
}

func mapStatus(response *cmpb.CpSolverResponse) Status {
	switch response.GetStatus() {
	case cmpb.CpSolverStatus_OPTIMAL:
		return StatusOptimal
	case cmpb.CpSolverStatus_FEASIBLE:
		return StatusFeasible
	case cmpb.CpSolverStatus_INFEASIBLE:
		return StatusInfeasible
	case cmpb.CpSolverStatus_MODEL_INVALID:
		return StatusInvalid
	default:
		// UNKNOWN with an incumbent is a usable budget-bounded solution;
		// without one it is a pure timeout.
		if len(response.GetSolution()) > 0 {
			return StatusFeasible
		}
		return StatusTimedOut
	}
}
