package schedule

import (
	"fmt"
	"slices"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	"go.uber.org/zap"
)

// Assignment is a solver-chosen (teacher, slot) pair, before room allocation.
type Assignment struct {
	Teacher int64
	Slot    string
}

type admissibility int

const (
	admissible admissibility = iota
	excludedByWish
	excludedByResponsibility
)

// classify decides whether a (teacher, slot) decision variable exists at all.
// Wishes and responsibility both exclude by omission, keeping the model small
// and making infeasibility diagnosis about missing candidates rather than
// conflicting constraints.
func classify(cfg EngineConfig, wishes *WishSet, slot Slot, code int64) admissibility {
	if wishes.Excludes(code, slot.DayIndex, slot.Session) {
		return excludedByWish
	}
	some, all := slot.responsibleFor(code)
	switch cfg.Exclusion {
	case ExclusionPermissive:
		if all {
			return excludedByResponsibility
		}
	default:
		if some {
			return excludedByResponsibility
		}
	}
	return admissible
}

type modelVar struct {
	teacher int64
	slot    string
	v       cpmodel.BoolVar
}

// SlotCensus is the per-slot candidate accounting recorded while building,
// reused verbatim by the feasibility diagnostic.
type SlotCensus struct {
	Admissible   int
	WishExcluded int
	RespExcluded int
}

// Model carries the CP-SAT proto plus the variable bookkeeping needed to
// extract a solution. It is built once per run and discarded afterwards.
type Model struct {
	Proto  *cmpb.CpModelProto
	vars   []modelVar
	Census map[string]SlotCensus

	Variables         int
	EquityConstraints int
	DispersionTerms   int
	PresenceTerms     int
}

// Assignments extracts every variable fixed to 1, in deterministic
// (teacher, slot) creation order.
func (m *Model) Assignments(response *cmpb.CpSolverResponse) []Assignment {
	var assignments []Assignment
	for _, mv := range m.vars {
		if cpmodel.SolutionBooleanValue(response, mv.v) {
			assignments = append(assignments, Assignment{Teacher: mv.teacher, Slot: mv.slot})
		}
	}
	return assignments
}

type ModelBuilder interface {
	Build(slots []Slot, registry *Registry, wishes *WishSet) (*Model, error)
}

func NewModelBuilder(cfg EngineConfig, logger *zap.Logger) ModelBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &modelBuilder{cfg: cfg, logger: logger}
}

type modelBuilder struct {
	cfg    EngineConfig
	logger *zap.Logger
}

func (builder *modelBuilder) Build(slots []Slot, registry *Registry, wishes *WishSet) (*Model, error) {
	cfg := builder.cfg
	cp := cpmodel.NewCpModelBuilder()
	participants := registry.Participants()
	horizon := int64(len(slots))

	model := &Model{Census: make(map[string]SlotCensus, len(slots))}

	//** Decision variables: one BoolVar per admissible (teacher, slot) pair
	x := make(map[int64]map[string]cpmodel.BoolVar, len(participants))
	for _, teacher := range participants {
		x[teacher.Code] = make(map[string]cpmodel.BoolVar)
	}
	for _, slot := range slots {
		census := model.Census[slot.ID]
		for _, teacher := range participants {
			switch classify(cfg, wishes, slot, teacher.Code) {
			case excludedByWish:
				census.WishExcluded++
				continue
			case excludedByResponsibility:
				census.RespExcluded++
				continue
			}
			v := cp.NewBoolVar().WithName(fmt.Sprintf("x_%d_%s", teacher.Code, slot.ID))
			x[teacher.Code][slot.ID] = v
			model.vars = append(model.vars, modelVar{teacher: teacher.Code, slot: slot.ID, v: v})
			census.Admissible++
		}
		model.Census[slot.ID] = census
	}
	model.Variables = len(model.vars)

	//** H1 coverage: exactly the required supervisor count per slot
	for _, slot := range slots {
		coverage := cpmodel.NewLinearExpr()
		for _, teacher := range participants {
			if v, ok := x[teacher.Code][slot.ID]; ok {
				coverage.Add(v)
			}
		}
		cp.AddEquality(coverage, cpmodel.NewConstant(int64(slot.Required)))
	}

	//** Per-teacher assignment counts, shared by H2, H3 and the objective
	counts := make(map[int64]cpmodel.IntVar, len(participants))
	for _, teacher := range participants {
		if len(x[teacher.Code]) == 0 {
			continue
		}
		total := cpmodel.NewLinearExpr()
		for _, slot := range slots {
			if v, ok := x[teacher.Code][slot.ID]; ok {
				total.Add(v)
			}
		}
		count := cp.NewIntVar(0, horizon).WithName(fmt.Sprintf("nb_%d", teacher.Code))
		cp.AddEquality(count, total)
		counts[teacher.Code] = count
	}

	//** H2 equity: pairwise |count(t1) - count(t2)| <= 1 within a grade,
	//** only when both teachers hold at least one admissible variable
	byGrade := make(map[string][]Teacher)
	for _, teacher := range participants {
		byGrade[teacher.Grade] = append(byGrade[teacher.Grade], teacher)
	}
	for _, group := range byGrade {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				c1, ok1 := counts[group[i].Code]
				c2, ok2 := counts[group[j].Code]
				if !ok1 || !ok2 {
					continue
				}
				diff := cpmodel.NewLinearExpr().AddTerm(c1, 1).AddTerm(c2, -1)
				cp.AddLessOrEqual(diff, cpmodel.NewConstant(1))
				cp.AddGreaterOrEqual(diff, cpmodel.NewConstant(-1))
				model.EquityConstraints += 2
			}
		}
	}

	//** H3 quota ceiling
	for _, teacher := range participants {
		if count, ok := counts[teacher.Code]; ok {
			cp.AddLessOrEqual(count, cpmodel.NewConstant(int64(teacher.Quota)))
		}
	}

	objective := cpmodel.NewLinearExpr()

	//** Objective core: pull every teacher toward exactly their quota via a
	//** true absolute deviation, not a one-sided bound
	for _, teacher := range participants {
		count, ok := counts[teacher.Code]
		if !ok {
			continue
		}
		delta := cp.NewIntVar(-horizon, horizon).WithName(fmt.Sprintf("delta_%d", teacher.Code))
		cp.AddEquality(delta, cpmodel.NewLinearExpr().Add(count).AddConstant(int64(-teacher.Quota)))
		absDelta := cp.NewIntVar(0, horizon).WithName(fmt.Sprintf("abs_%d", teacher.Code))
		cp.AddAbsEquality(absDelta, delta)
		objective.Add(absDelta)
	}

	//** S1 dispersion: penalize non-adjacent same-day session pairs
	if cfg.EnableDispersion {
		builder.addDispersionTerms(cp, model, objective, slots, participants, x)
	}

	//** S2 responsible presence: nudge, never force, a room's responsible
	//** teacher to also supervise in their own slot
	if cfg.EnablePresence {
		for _, slot := range slots {
			for _, room := range slot.Rooms {
				if room.Responsible == nil {
					continue
				}
				if v, ok := x[*room.Responsible][slot.ID]; ok {
					objective.AddTerm(v.Not(), 50*cfg.PresenceWeight)
					model.PresenceTerms++
				}
			}
		}
	}

	cp.Minimize(objective)

	proto, err := cp.Model()
	if err != nil {
		return nil, fmt.Errorf("cannot instantiate cp model: %w", err)
	}
	model.Proto = proto

	builder.logger.Info("constraint model built",
		zap.Int("variables", model.Variables),
		zap.Int("equityConstraints", model.EquityConstraints),
		zap.Int("dispersionTerms", model.DispersionTerms),
		zap.Int("presenceTerms", model.PresenceTerms))

	return model, nil
}

func (builder *modelBuilder) addDispersionTerms(
	cp *cpmodel.Builder,
	model *Model,
	objective *cpmodel.LinearExpr,
	slots []Slot,
	participants []Teacher,
	x map[int64]map[string]cpmodel.BoolVar,
) {
	slotsByDay := make(map[int][]Slot)
	var days []int
	for _, slot := range slots {
		if _, ok := slotsByDay[slot.DayIndex]; !ok {
			days = append(days, slot.DayIndex)
		}
		slotsByDay[slot.DayIndex] = append(slotsByDay[slot.DayIndex], slot)
	}
	slices.Sort(days) // deterministic variable creation order

	for _, teacher := range participants {
		for _, day := range days {
			daySlots := slotsByDay[day]
			var owned []Slot
			for _, slot := range daySlots {
				if _, ok := x[teacher.Code][slot.ID]; ok {
					owned = append(owned, slot)
				}
			}
			if len(owned) < 2 {
				continue
			}

			for i := 0; i < len(owned); i++ {
				for j := i + 1; j < len(owned); j++ {
					gap := owned[i].Session - owned[j].Session
					if gap < 0 {
						gap = -gap
					}
					if gap <= 1 { // adjacent sessions incur no penalty
						continue
					}

					v1 := x[teacher.Code][owned[i].ID]
					v2 := x[teacher.Code][owned[j].ID]
					both := cp.NewBoolVar().WithName(fmt.Sprintf("both_%d_%s_%s", teacher.Code, owned[i].ID, owned[j].ID))
					cp.AddBoolAnd(both).OnlyEnforceIf(v1, v2)
					cp.AddBoolAnd(both.Not()).OnlyEnforceIf(v1.Not())
					cp.AddBoolAnd(both.Not()).OnlyEnforceIf(v2.Not())

					objective.AddTerm(both, int64(gap)*10*builder.cfg.DispersionWeight)
					model.DispersionTerms++
				}
			}
		}
	}
}
