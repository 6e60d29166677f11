package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Reserves = ReserveFixed
	cfg.FixedReserves = 2

	newPlan := func(t *testing.T, slots []Slot, perSlot map[string][]int64) []RoomAssignment {
		t.Helper()
		var assignments []Assignment
		for slotID, teachers := range perSlot {
			for _, code := range teachers {
				assignments = append(assignments, Assignment{Teacher: code, Slot: slotID})
			}
		}
		plan, err := NewRoomAllocator().Allocate(slots, assignments)
		require.NoError(t, err)
		return plan
	}

	t.Run("utilization and grade spread", func(t *testing.T) {
		// Arrange: 6 teachers of one grade, one slot needing 6
		slots, registry, wishes := buildFixture(t, cfg,
			[]RawTeacherRow{
				teacherRow(1, "MA", nil), teacherRow(2, "MA", nil),
				teacherRow(3, "MA", nil), teacherRow(4, "MA", nil),
				teacherRow(5, "MA", nil), teacherRow(6, "MA", nil),
				teacherRow(7, "MA", boolPtr(false)),
			},
			[]RawQuotaRow{{Grade: "MA", Quota: 2}},
			[]RawRoomRow{
				roomRow("15/01/2025", "08:30", "10:00", "A101", nil),
				roomRow("15/01/2025", "08:30", "10:00", "A102", nil),
			},
			nil,
		)
		plan := newPlan(t, slots, map[string][]int64{slots[0].ID: {1, 2, 3, 4, 5, 6}})

		// Act
		stats := NewComplianceAnalyzer().Analyze(plan, slots, registry, wishes)

		// Assert
		assert.Equal(t, 6, stats.TotalAssignments)
		assert.Equal(t, 4, stats.Titulaires)
		assert.Equal(t, 2, stats.Reserves)

		require.Len(t, stats.Utilization, 6) // non-participant excluded
		assert.Equal(t, int64(1), stats.Utilization[0].Teacher)
		assert.Equal(t, 1, stats.Utilization[0].Assigned)
		assert.InDelta(t, 0.5, stats.Utilization[0].Utilization, 1e-9)

		require.Len(t, stats.Spreads, 1)
		assert.Equal(t, 0, stats.Spreads[0].Spread)
		assert.InDelta(t, 0.0, stats.Spreads[0].MeanAbsoluteDeviation, 1e-9)
	})

	t.Run("wish compliance holds by construction", func(t *testing.T) {
		// Arrange
		slots, registry, wishes := buildFixture(t, cfg,
			[]RawTeacherRow{
				teacherRow(1, "MA", nil), teacherRow(2, "MA", nil),
				teacherRow(3, "MA", nil), teacherRow(4, "MA", nil),
				teacherRow(5, "MA", nil), teacherRow(6, "MA", nil),
			},
			[]RawQuotaRow{{Grade: "MA", Quota: 2}},
			[]RawRoomRow{
				roomRow("15/01/2025", "08:30", "10:00", "A101", nil),
				roomRow("15/01/2025", "08:30", "10:00", "A102", nil),
			},
			[]RawWishRow{{Code: 9, Day: 1, Session: 1}},
		)
		plan := newPlan(t, slots, map[string][]int64{slots[0].ID: {1, 2, 3, 4, 5, 6}})

		// Act
		stats := NewComplianceAnalyzer().Analyze(plan, slots, registry, wishes)

		// Assert
		assert.Equal(t, 0, stats.WishViolations)
		assert.InDelta(t, 1.0, stats.WishComplianceRate, 1e-9)
	})

	t.Run("detects a wish violation as a builder defect signal", func(t *testing.T) {
		// Arrange: teacher 1 wished out of (day 1, session 1) yet assigned
		slots, registry, wishes := buildFixture(t, cfg,
			[]RawTeacherRow{
				teacherRow(1, "MA", nil), teacherRow(2, "MA", nil),
				teacherRow(3, "MA", nil), teacherRow(4, "MA", nil),
				teacherRow(5, "MA", nil), teacherRow(6, "MA", nil),
			},
			[]RawQuotaRow{{Grade: "MA", Quota: 2}},
			[]RawRoomRow{
				roomRow("15/01/2025", "08:30", "10:00", "A101", nil),
				roomRow("15/01/2025", "08:30", "10:00", "A102", nil),
			},
			[]RawWishRow{{Code: 1, Day: 1, Session: 1}},
		)
		plan := newPlan(t, slots, map[string][]int64{slots[0].ID: {1, 2, 3, 4, 5, 6}})

		// Act
		stats := NewComplianceAnalyzer().Analyze(plan, slots, registry, wishes)

		// Assert
		assert.Equal(t, 1, stats.WishViolations)
		assert.Less(t, stats.WishComplianceRate, 1.0)
	})

	t.Run("responsible presence rate", func(t *testing.T) {
		// Arrange: two responsible-held rooms, only teacher 1 present
		slots, registry, wishes := buildFixture(t, cfg,
			[]RawTeacherRow{
				teacherRow(1, "MA", nil), teacherRow(2, "MA", nil),
				teacherRow(3, "MA", nil), teacherRow(4, "MA", nil),
				teacherRow(5, "MA", nil), teacherRow(6, "MA", nil),
				teacherRow(7, "MA", nil),
			},
			[]RawQuotaRow{{Grade: "MA", Quota: 2}},
			[]RawRoomRow{
				roomRow("15/01/2025", "08:30", "10:00", "A101", ptr(1)),
				roomRow("15/01/2025", "08:30", "10:00", "A102", ptr(7)),
			},
			nil,
		)
		plan := newPlan(t, slots, map[string][]int64{slots[0].ID: {1, 2, 3, 4, 5, 6}})

		// Act
		stats := NewComplianceAnalyzer().Analyze(plan, slots, registry, wishes)

		// Assert
		assert.InDelta(t, 0.5, stats.ResponsiblePresenceRate, 1e-9)
	})

	t.Run("dispersion summary counts non-adjacent same-day gaps", func(t *testing.T) {
		// Arrange: teachers 1-5 take sessions 1 and 4 the same day
		slots, registry, wishes := buildFixture(t, cfg,
			[]RawTeacherRow{
				teacherRow(1, "MA", nil), teacherRow(2, "MA", nil),
				teacherRow(3, "MA", nil), teacherRow(4, "MA", nil),
				teacherRow(5, "MA", nil), teacherRow(6, "MA", nil),
				teacherRow(7, "MA", nil),
			},
			[]RawQuotaRow{{Grade: "MA", Quota: 4}},
			[]RawRoomRow{
				roomRow("15/01/2025", "08:30", "10:00", "A101", nil),
				roomRow("15/01/2025", "08:30", "10:00", "A102", nil),
				roomRow("15/01/2025", "15:00", "17:00", "A101", nil),
				roomRow("15/01/2025", "15:00", "17:00", "A102", nil),
			},
			nil,
		)
		plan := newPlan(t, slots, map[string][]int64{
			slots[0].ID: {1, 2, 3, 4, 5, 6},
			slots[1].ID: {1, 2, 3, 4, 5, 7},
		})

		// Act
		stats := NewComplianceAnalyzer().Analyze(plan, slots, registry, wishes)

		// Assert: teachers 1 through 5 each carry one gap of magnitude 3
		require.Len(t, stats.Dispersion, 5)
		for _, summary := range stats.Dispersion {
			assert.Equal(t, 1, summary.Gaps)
			assert.Equal(t, 3, summary.Magnitude)
		}
	})

	t.Run("room occupancy histogram validates the invariant", func(t *testing.T) {
		// Arrange
		slots, registry, wishes := buildFixture(t, cfg,
			[]RawTeacherRow{
				teacherRow(1, "MA", nil), teacherRow(2, "MA", nil),
				teacherRow(3, "MA", nil), teacherRow(4, "MA", nil),
				teacherRow(5, "MA", nil), teacherRow(6, "MA", nil),
			},
			[]RawQuotaRow{{Grade: "MA", Quota: 2}},
			[]RawRoomRow{
				roomRow("15/01/2025", "08:30", "10:00", "A101", nil),
				roomRow("15/01/2025", "08:30", "10:00", "A102", nil),
			},
			nil,
		)
		plan := newPlan(t, slots, map[string][]int64{slots[0].ID: {1, 2, 3, 4, 5, 6}})

		// Act
		stats := NewComplianceAnalyzer().Analyze(plan, slots, registry, wishes)

		// Assert: 2 reserves over 2 rooms gives 3 supervisors everywhere
		assert.Equal(t, map[int]int{3: 2}, stats.RoomOccupancy)
	})
}
