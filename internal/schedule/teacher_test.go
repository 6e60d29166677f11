package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teacherRow(code int64, grade string, participates *bool) RawTeacherRow {
	return RawTeacherRow{Code: code, Grade: grade, Participates: participates}
}

func boolPtr(b bool) *bool {
	return &b
}

func TestBuildRegistry(t *testing.T) {
	quotas := []RawQuotaRow{
		{Grade: "PR", Quota: 4},
		{Grade: "MA", Quota: 6},
	}

	t.Run("resolves quota and priority from grade", func(t *testing.T) {
		// Arrange
		builder := NewRegistryBuilder(DefaultConfig(), nil)
		rows := []RawTeacherRow{
			teacherRow(1, "PR", nil),
			teacherRow(2, "ma", nil), // grades are normalized
		}

		// Act
		registry := builder.Build(rows, quotas)

		// Assert
		require.Len(t, registry.Teachers, 2)
		assert.Equal(t, 4, registry.Teachers[1].Quota)
		assert.Equal(t, 1, registry.Teachers[1].Priority)
		assert.Equal(t, "MA", registry.Teachers[2].Grade)
		assert.Equal(t, 6, registry.Teachers[2].Quota)
		assert.Equal(t, 2, registry.Teachers[2].Priority)
	})

	t.Run("missing participation defaults to true", func(t *testing.T) {
		// Arrange
		builder := NewRegistryBuilder(DefaultConfig(), nil)
		rows := []RawTeacherRow{
			teacherRow(1, "PR", nil),
			teacherRow(2, "PR", boolPtr(false)),
			teacherRow(3, "PR", boolPtr(true)),
		}

		// Act
		registry := builder.Build(rows, quotas)

		// Assert
		participants := registry.Participants()
		require.Len(t, participants, 2)
		assert.Equal(t, int64(1), participants[0].Code)
		assert.Equal(t, int64(3), participants[1].Code)
	})

	t.Run("unknown grade gets the default quota under QuotaDefault", func(t *testing.T) {
		// Arrange
		cfg := DefaultConfig()
		cfg.QuotaPolicy = QuotaDefault
		cfg.DefaultQuota = 8
		builder := NewRegistryBuilder(cfg, nil)
		rows := []RawTeacherRow{teacherRow(1, "ZZ", nil)}

		// Act
		registry := builder.Build(rows, quotas)

		// Assert
		require.Len(t, registry.Teachers, 1)
		assert.Equal(t, 8, registry.Teachers[1].Quota)
		assert.Equal(t, fallbackPriority, registry.Teachers[1].Priority)
		assert.Equal(t, []string{"ZZ"}, registry.DefaultedGrades)
	})

	t.Run("unknown grade drops the teacher under QuotaDrop", func(t *testing.T) {
		// Arrange
		cfg := DefaultConfig()
		cfg.QuotaPolicy = QuotaDrop
		builder := NewRegistryBuilder(cfg, nil)
		rows := []RawTeacherRow{
			teacherRow(1, "ZZ", nil),
			teacherRow(2, "PR", nil),
		}

		// Act
		registry := builder.Build(rows, quotas)

		// Assert
		require.Len(t, registry.Teachers, 1)
		assert.Equal(t, []int64{1}, registry.DroppedTeachers)
	})

	t.Run("capacity aggregates cover only participants", func(t *testing.T) {
		// Arrange
		builder := NewRegistryBuilder(DefaultConfig(), nil)
		rows := []RawTeacherRow{
			teacherRow(1, "PR", nil),
			teacherRow(2, "PR", boolPtr(false)),
			teacherRow(3, "MA", nil),
			teacherRow(4, "MA", nil),
		}

		// Act
		registry := builder.Build(rows, quotas)

		// Assert
		assert.Equal(t, 4+6+6, registry.Capacity())

		byGrade := registry.CapacityByGrade()
		require.Contains(t, byGrade, "PR")
		require.Contains(t, byGrade, "MA")
		assert.Equal(t, GradeCapacity{Teachers: 1, Capacity: 4, MinQuota: 4, MaxQuota: 4}, byGrade["PR"])
		assert.Equal(t, GradeCapacity{Teachers: 2, Capacity: 12, MinQuota: 6, MaxQuota: 6}, byGrade["MA"])
	})
}

func TestWishSet(t *testing.T) {
	// Arrange
	wishes := NewWishSet([]RawWishRow{
		{Code: 1, Day: 1, Session: 2},
		{Code: 1, Day: 0, Session: 2}, // malformed rows are skipped
		{Code: 2, Day: 3, Session: 0},
	})

	// Act + Assert
	assert.Equal(t, 1, wishes.Len())
	assert.True(t, wishes.Excludes(1, 1, 2))
	assert.False(t, wishes.Excludes(1, 1, 3))
	assert.False(t, wishes.Excludes(2, 3, 0))
}
