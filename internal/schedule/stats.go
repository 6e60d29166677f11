package schedule

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

type TeacherUtilization struct {
	Teacher     int64
	Grade       string
	Priority    int
	Assigned    int
	Quota       int
	Utilization float64
}

type GradeSpread struct {
	Grade                 string
	Teachers              int
	Min                   int
	Max                   int
	Spread                int
	MeanAbsoluteDeviation float64
}

type DispersionSummary struct {
	Teacher int64
	Gaps    int
	// Magnitude sums the session gaps of every non-adjacent same-day pair.
	Magnitude int
}

// Statistics is the post-solve compliance report. It is read-only aggregation:
// this component never raises business errors.
type Statistics struct {
	TotalAssignments int
	Titulaires       int
	Reserves         int

	Utilization []TeacherUtilization
	Spreads     []GradeSpread

	// WishComplianceRate must be 1.0 by construction; anything lower marks
	// a builder defect.
	WishComplianceRate float64
	WishViolations     int

	// ResponsiblePresenceRate is meaningful only under the S2 policy: the
	// share of responsible-held rooms whose responsible teacher is also
	// assigned somewhere in the slot.
	ResponsiblePresenceRate float64

	Dispersion []DispersionSummary

	// RoomOccupancy histogram (occupancy -> rooms), used to validate the
	// 2-3 per room invariant.
	RoomOccupancy map[int]int
}

type ComplianceAnalyzer interface {
	Analyze(plan []RoomAssignment, slots []Slot, registry *Registry, wishes *WishSet) *Statistics
}

func NewComplianceAnalyzer() ComplianceAnalyzer {
	return &complianceAnalyzer{}
}

type complianceAnalyzer struct{}

func (analyzer *complianceAnalyzer) Analyze(plan []RoomAssignment, slots []Slot, registry *Registry, wishes *WishSet) *Statistics {
	stats := &Statistics{
		TotalAssignments: len(plan),
		Titulaires:       lo.CountBy(plan, func(a RoomAssignment) bool { return a.Role == RoleTitulaire }),
		Reserves:         lo.CountBy(plan, func(a RoomAssignment) bool { return a.Role == RoleReserve }),
		RoomOccupancy:    make(map[int]int),
	}

	slotByID := lo.KeyBy(slots, func(s Slot) string { return s.ID })

	//** Per-teacher utilization against quota
	assignedCounts := lo.CountValuesBy(plan, func(a RoomAssignment) int64 { return a.Teacher })
	for _, teacher := range registry.Participants() {
		assigned := assignedCounts[teacher.Code]
		utilization := 0.0
		if teacher.Quota > 0 {
			utilization = float64(assigned) / float64(teacher.Quota)
		}
		stats.Utilization = append(stats.Utilization, TeacherUtilization{
			Teacher:     teacher.Code,
			Grade:       teacher.Grade,
			Priority:    teacher.Priority,
			Assigned:    assigned,
			Quota:       teacher.Quota,
			Utilization: utilization,
		})
	}

	//** Per-grade spread: max-min and mean absolute deviation
	byGrade := lo.GroupBy(stats.Utilization, func(u TeacherUtilization) string { return u.Grade })
	for grade, group := range byGrade {
		counts := lo.Map(group, func(u TeacherUtilization, _ int) int { return u.Assigned })
		mean := float64(lo.Sum(counts)) / float64(len(counts))
		mad := lo.SumBy(counts, func(n int) float64 {
			d := float64(n) - mean
			if d < 0 {
				d = -d
			}
			return d
		}) / float64(len(counts))

		stats.Spreads = append(stats.Spreads, GradeSpread{
			Grade:                 grade,
			Teachers:              len(group),
			Min:                   lo.Min(counts),
			Max:                   lo.Max(counts),
			Spread:                lo.Max(counts) - lo.Min(counts),
			MeanAbsoluteDeviation: mad,
		})
	}
	slices.SortFunc(stats.Spreads, func(a, b GradeSpread) int {
		return strings.Compare(a.Grade, b.Grade)
	})

	//** Wish compliance (must hold by construction)
	for _, assignment := range plan {
		if wishes.Excludes(assignment.Teacher, assignment.Day, assignment.Session) {
			stats.WishViolations++
		}
	}
	stats.WishComplianceRate = 1.0
	if len(plan) > 0 {
		stats.WishComplianceRate = 1.0 - float64(stats.WishViolations)/float64(len(plan))
	}

	//** Responsible presence per slot
	assignedInSlot := make(map[string]map[int64]bool)
	for _, assignment := range plan {
		if assignedInSlot[assignment.Slot] == nil {
			assignedInSlot[assignment.Slot] = make(map[int64]bool)
		}
		assignedInSlot[assignment.Slot][assignment.Teacher] = true
	}
	responsibleRooms, responsiblePresent := 0, 0
	for _, slot := range slots {
		for _, room := range slot.Rooms {
			if room.Responsible == nil {
				continue
			}
			responsibleRooms++
			if assignedInSlot[slot.ID][*room.Responsible] {
				responsiblePresent++
			}
		}
	}
	if responsibleRooms > 0 {
		stats.ResponsiblePresenceRate = float64(responsiblePresent) / float64(responsibleRooms)
	}

	//** Dispersion: non-adjacent same-day session pairs actually incurred
	type daySlots struct {
		teacher int64
		day     int
	}
	sessionsByTeacherDay := make(map[daySlots][]int)
	seen := make(map[int64]map[string]bool) // teacher -> slot dedup across rooms
	for _, assignment := range plan {
		if seen[assignment.Teacher] == nil {
			seen[assignment.Teacher] = make(map[string]bool)
		}
		if seen[assignment.Teacher][assignment.Slot] {
			continue
		}
		seen[assignment.Teacher][assignment.Slot] = true
		if _, ok := slotByID[assignment.Slot]; ok {
			td := daySlots{teacher: assignment.Teacher, day: assignment.Day}
			sessionsByTeacherDay[td] = append(sessionsByTeacherDay[td], assignment.Session)
		}
	}
	dispersionByTeacher := make(map[int64]*DispersionSummary)
	for td, sessions := range sessionsByTeacherDay {
		for i := 0; i < len(sessions); i++ {
			for j := i + 1; j < len(sessions); j++ {
				gap := sessions[i] - sessions[j]
				if gap < 0 {
					gap = -gap
				}
				if gap <= 1 {
					continue
				}
				summary := dispersionByTeacher[td.teacher]
				if summary == nil {
					summary = &DispersionSummary{Teacher: td.teacher}
					dispersionByTeacher[td.teacher] = summary
				}
				summary.Gaps++
				summary.Magnitude += gap
			}
		}
	}
	for _, summary := range dispersionByTeacher {
		stats.Dispersion = append(stats.Dispersion, *summary)
	}
	slices.SortFunc(stats.Dispersion, func(a, b DispersionSummary) int {
		if a.Teacher < b.Teacher {
			return -1
		} else if a.Teacher > b.Teacher {
			return 1
		}
		return 0
	})

	//** Room occupancy histogram
	occupancy := make(map[[2]string]int)
	for _, assignment := range plan {
		occupancy[[2]string{assignment.Slot, assignment.Room}]++
	}
	for _, n := range occupancy {
		stats.RoomOccupancy[n]++
	}

	return stats
}
