package schedule

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"surveillance/internal/solver"
)

type Outcome int

const (
	OutcomeSolved Outcome = iota
	OutcomeInfeasible
	OutcomeDefect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSolved:
		return "SOLVED"
	case OutcomeInfeasible:
		return "INFEASIBLE"
	}
	return "DEFECT"
}

// Result is the single value callers receive: a solved plan with statistics,
// a structured infeasibility diagnostic, or a fatal defect. Never partial.
type Result struct {
	Outcome      Outcome
	Plan         []RoomAssignment
	Stats        *Statistics
	Diagnostic   *DiagnosticReport
	SolverStatus solver.Status
	Err          error
}

type Engine interface {
	// Run executes one full optimization pass. The engine holds no state
	// between runs; independent sessions may run concurrently on separate
	// Engine values.
	Run(ctx context.Context, input Input) Result
}

func NewEngine(cfg EngineConfig, slv solver.Solver, logger *zap.Logger) Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &engine{
		cfg:         cfg,
		solver:      slv,
		logger:      logger,
		slots:       NewSlotBuilder(cfg, logger),
		registry:    NewRegistryBuilder(cfg, logger),
		model:       NewModelBuilder(cfg, logger),
		feasibility: NewFeasibilityAnalyzer(cfg, logger),
		allocator:   NewRoomAllocator(),
		compliance:  NewComplianceAnalyzer(),
	}
}

type engine struct {
	cfg    EngineConfig
	solver solver.Solver
	logger *zap.Logger

	slots       SlotBuilder
	registry    RegistryBuilder
	model       ModelBuilder
	feasibility FeasibilityAnalyzer
	allocator   RoomAllocator
	compliance  ComplianceAnalyzer
}

func defect(err error) Result {
	return Result{Outcome: OutcomeDefect, Err: err}
}

func (e *engine) Run(ctx context.Context, input Input) Result {
	slots, unmapped, err := e.slots.Build(input.Rooms, input.RoomCounts)
	if err != nil {
		return defect(err)
	}
	registry := e.registry.Build(input.Teachers, input.Quotas)
	wishes := NewWishSet(input.Wishes)

	//** Diagnostic gate: do not run a doomed solve
	diagnostic := e.feasibility.Diagnose(slots, unmapped, registry, wishes)
	if !diagnostic.Feasible() {
		return Result{Outcome: OutcomeInfeasible, Diagnostic: diagnostic}
	}

	model, err := e.model.Build(slots, registry, wishes)
	if err != nil {
		return defect(err)
	}

	outcome, err := e.solver.Solve(ctx, model.Proto, solver.Options{
		TimeBudget: e.cfg.TimeBudget,
		Workers:    e.cfg.Workers,
		Seed:       e.cfg.Seed,
	})
	if err != nil {
		return defect(err)
	}

	e.logger.Info("solve finished",
		zap.Stringer("status", outcome.Status),
		zap.Duration("wallTime", outcome.WallTime),
		zap.Float64("objective", outcome.Objective))

	switch outcome.Status {
	case solver.StatusInfeasible:
		// The proactive diagnostic passed, so the conflict lives in the
		// equity interactions; name it as such in the report.
		diagnostic.EquityInteraction = true
		return Result{Outcome: OutcomeInfeasible, Diagnostic: diagnostic, SolverStatus: outcome.Status}
	case solver.StatusTimedOut:
		// Pure timeout with no incumbent is equivalent to failure.
		return Result{
			Outcome:      OutcomeInfeasible,
			Diagnostic:   diagnostic,
			SolverStatus: outcome.Status,
			Err:          fmt.Errorf("time budget %s exhausted without a feasible assignment", e.cfg.TimeBudget),
		}
	case solver.StatusInvalid:
		return Result{
			Outcome:      OutcomeDefect,
			SolverStatus: outcome.Status,
			Err:          fmt.Errorf("solver rejected the model as invalid: engine defect"),
		}
	}

	assignments := model.Assignments(outcome.Response)

	plan, err := e.allocator.Allocate(slots, assignments)
	if err != nil {
		return defect(err)
	}

	stats := e.compliance.Analyze(plan, slots, registry, wishes)

	return Result{
		Outcome:      OutcomeSolved,
		Plan:         plan,
		Stats:        stats,
		Diagnostic:   diagnostic,
		SolverStatus: outcome.Status,
	}
}
