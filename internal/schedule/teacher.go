package schedule

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Teacher struct {
	Code         int64
	LastName     string
	FirstName    string
	Grade        string
	Quota        int
	Priority     int
	Participates bool
}

// Registry holds the participant pool plus the capacity aggregates consumed
// by the feasibility diagnostic.
type Registry struct {
	Teachers map[int64]Teacher
	// DefaultedGrades lists grades absent from the quota map that were
	// recovered with the default quota (QuotaDefault policy only).
	DefaultedGrades []string
	// DroppedTeachers lists teachers removed because their grade was
	// unknown (QuotaDrop policy only).
	DroppedTeachers []int64
}

// priorityByGrade orders solicitation for reporting: higher means the grade
// is called on first.
var priorityByGrade = map[string]int{
	"VA": 5, "V": 5,
	"AC": 4, "AS": 4, "PES": 4, "EX": 4,
	"PTC": 3,
	"MA": 2, "MC": 2,
	"PR": 1,
}

const fallbackPriority = 3

func (r *Registry) Participants() []Teacher {
	participants := lo.Filter(lo.Values(r.Teachers), func(t Teacher, _ int) bool { return t.Participates })
	slices.SortFunc(participants, func(a, b Teacher) int {
		if a.Code < b.Code {
			return -1
		} else if a.Code > b.Code {
			return 1
		}
		return 0
	})
	return participants
}

// Capacity is the total number of supervisions the participant pool can absorb.
func (r *Registry) Capacity() int {
	return lo.SumBy(r.Participants(), func(t Teacher) int { return t.Quota })
}

type GradeCapacity struct {
	Teachers int
	Capacity int
	MinQuota int
	MaxQuota int
}

func (r *Registry) CapacityByGrade() map[string]GradeCapacity {
	byGrade := make(map[string]GradeCapacity)
	for _, t := range r.Participants() {
		stats, ok := byGrade[t.Grade]
		if !ok {
			stats = GradeCapacity{MinQuota: t.Quota, MaxQuota: t.Quota}
		}
		stats.Teachers++
		stats.Capacity += t.Quota
		stats.MinQuota = min(stats.MinQuota, t.Quota)
		stats.MaxQuota = max(stats.MaxQuota, t.Quota)
		byGrade[t.Grade] = stats
	}
	return byGrade
}

type RegistryBuilder interface {
	Build(teachers []RawTeacherRow, quotas []RawQuotaRow) *Registry
}

func NewRegistryBuilder(cfg EngineConfig, logger *zap.Logger) RegistryBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &registryBuilder{cfg: cfg, logger: logger}
}

type registryBuilder struct {
	cfg    EngineConfig
	logger *zap.Logger
}

func (builder *registryBuilder) Build(teachers []RawTeacherRow, quotas []RawQuotaRow) *Registry {
	quotaByGrade := make(map[string]int, len(quotas))
	for _, row := range quotas {
		quotaByGrade[normalizeGrade(row.Grade)] = row.Quota
	}

	registry := &Registry{Teachers: make(map[int64]Teacher, len(teachers))}
	defaulted := make(map[string]bool)

	for _, row := range teachers {
		grade := normalizeGrade(row.Grade)

		quota, known := quotaByGrade[grade]
		if !known {
			switch builder.cfg.QuotaPolicy {
			case QuotaDrop:
				builder.logger.Warn("grade missing from quota map, dropping teacher",
					zap.String("grade", grade),
					zap.Int64("teacher", row.Code))
				registry.DroppedTeachers = append(registry.DroppedTeachers, row.Code)
				continue
			default:
				if !defaulted[grade] {
					builder.logger.Warn("grade missing from quota map, using default quota",
						zap.String("grade", grade),
						zap.Int("quota", builder.cfg.DefaultQuota))
					defaulted[grade] = true
					registry.DefaultedGrades = append(registry.DefaultedGrades, grade)
				}
				quota = builder.cfg.DefaultQuota
			}
		}

		// Missing participation defaults to true
		participates := row.Participates == nil || *row.Participates

		priority, ok := priorityByGrade[grade]
		if !ok {
			priority = fallbackPriority
		}

		registry.Teachers[row.Code] = Teacher{
			Code:         row.Code,
			LastName:     row.LastName,
			FirstName:    row.FirstName,
			Grade:        grade,
			Quota:        quota,
			Priority:     priority,
			Participates: participates,
		}
	}

	slices.Sort(registry.DefaultedGrades)
	slices.Sort(registry.DroppedTeachers)

	builder.logger.Info("teacher registry built",
		zap.Int("teachers", len(registry.Teachers)),
		zap.Int("participants", len(registry.Participants())),
		zap.Int("capacity", registry.Capacity()))

	return registry
}

func normalizeGrade(grade string) string {
	return strings.ToUpper(strings.TrimSpace(grade))
}
