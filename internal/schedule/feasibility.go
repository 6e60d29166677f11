package schedule

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// SlotShortfall describes a slot whose admissible candidate pool cannot cover
// its required supervisor count, with the exclusion breakdown that caused it.
type SlotShortfall struct {
	Slot         string
	Date         string
	Start        string
	Day          int
	Session      int
	Required     int
	Available    int
	Missing      int
	WishExcluded int
	RespExcluded int
}

type GradeDiagnostic struct {
	Grade       string
	Teachers    int
	Capacity    int
	MeanQuota   float64
	QuotaSpread int
	// EquityRisk flags a quota spread above 1 inside the grade, which
	// invites conflict with the pairwise equity constraint.
	EquityRisk bool
}

// DiagnosticReport is the structured explanation consumed by callers to
// adapt inputs before retrying. It is data, never formatted text.
type DiagnosticReport struct {
	Policy       string
	Participants int
	Capacity     int
	Required     int
	// Deficit is positive when aggregate capacity falls short of coverage.
	Deficit int
	Ratio   float64

	Grades     []GradeDiagnostic
	Shortfalls []SlotShortfall

	ZeroRoomSlots []string
	UnmappedSlots []string

	// EquityInteraction is set when the solver reported infeasibility even
	// though capacity and per-slot coverage check out; the conflict then
	// lives in the pairwise equity constraints.
	EquityInteraction bool
}

// Feasible reports whether the structural checks pass. A clean report does
// not rule out equity-interaction infeasibility, which only the solver can
// detect.
func (r *DiagnosticReport) Feasible() bool {
	return r.Capacity > 0 && r.Deficit <= 0 && len(r.Shortfalls) == 0
}

type FeasibilityAnalyzer interface {
	// Diagnose is a read-only explain pass; it never modifies its inputs.
	Diagnose(slots []Slot, unmapped []Slot, registry *Registry, wishes *WishSet) *DiagnosticReport
}

func NewFeasibilityAnalyzer(cfg EngineConfig, logger *zap.Logger) FeasibilityAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &feasibilityAnalyzer{cfg: cfg, logger: logger}
}

type feasibilityAnalyzer struct {
	cfg    EngineConfig
	logger *zap.Logger
}

func (analyzer *feasibilityAnalyzer) Diagnose(slots []Slot, unmapped []Slot, registry *Registry, wishes *WishSet) *DiagnosticReport {
	participants := registry.Participants()

	report := &DiagnosticReport{
		Policy:        analyzer.cfg.Exclusion.String(),
		Participants:  len(participants),
		Capacity:      registry.Capacity(),
		Required:      lo.SumBy(slots, func(s Slot) int { return s.Required }),
		UnmappedSlots: lo.Map(unmapped, func(s Slot, _ int) string { return s.ID }),
	}
	report.Deficit = report.Required - report.Capacity
	if report.Required > 0 {
		report.Ratio = float64(report.Capacity) / float64(report.Required)
	}

	//** Per-grade capacity and quota homogeneity
	for grade, capacity := range registry.CapacityByGrade() {
		spread := capacity.MaxQuota - capacity.MinQuota
		report.Grades = append(report.Grades, GradeDiagnostic{
			Grade:       grade,
			Teachers:    capacity.Teachers,
			Capacity:    capacity.Capacity,
			MeanQuota:   float64(capacity.Capacity) / float64(capacity.Teachers),
			QuotaSpread: spread,
			EquityRisk:  spread > 1,
		})
	}
	slices.SortFunc(report.Grades, func(a, b GradeDiagnostic) int {
		return strings.Compare(a.Grade, b.Grade)
	})

	//** Per-slot admissible candidates vs required counts
	for _, slot := range slots {
		if slot.ZeroRooms {
			report.ZeroRoomSlots = append(report.ZeroRoomSlots, slot.ID)
		}

		available, byWish, byResp := 0, 0, 0
		for _, teacher := range participants {
			switch classify(analyzer.cfg, wishes, slot, teacher.Code) {
			case excludedByWish:
				byWish++
			case excludedByResponsibility:
				byResp++
			default:
				available++
			}
		}

		if available < slot.Required {
			report.Shortfalls = append(report.Shortfalls, SlotShortfall{
				Slot:         slot.ID,
				Date:         slot.Date,
				Start:        slot.Start,
				Day:          slot.DayIndex,
				Session:      slot.Session,
				Required:     slot.Required,
				Available:    available,
				Missing:      slot.Required - available,
				WishExcluded: byWish,
				RespExcluded: byResp,
			})
		}
	}

	analyzer.logger.Info("feasibility diagnostic",
		zap.Int("capacity", report.Capacity),
		zap.Int("required", report.Required),
		zap.Float64("ratio", report.Ratio),
		zap.Int("shortfalls", len(report.Shortfalls)),
		zap.Bool("feasible", report.Feasible()))

	return report
}
