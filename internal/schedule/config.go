package schedule

import "time"

// ExclusionPolicy governs when a (teacher, slot) variable is omitted from the
// model because the teacher is responsible for a room of that slot.
//
// The model is slot-granular: one variable per teacher and slot, never per
// room. Under ExclusionPermissive a teacher responsible for one of several
// rooms keeps their slot variable and may end up proctoring a sibling room;
// the room allocator does not steer them away from their own room. This is a
// known granularity limit of the slot-level formulation.
type ExclusionPolicy int

const (
	// ExclusionStrict omits the variable if the teacher is responsible for
	// any room of the slot.
	ExclusionStrict ExclusionPolicy = iota
	// ExclusionPermissive omits the variable only if the teacher is
	// responsible for every room of the slot.
	ExclusionPermissive
)

func (p ExclusionPolicy) String() string {
	if p == ExclusionPermissive {
		return "permissive"
	}
	return "strict"
}

// ReserveFormula is a closed set of policies for the per-slot reserve count.
type ReserveFormula int

const (
	// ReserveMaxQuarter yields max(2, rooms/4) reserves.
	ReserveMaxQuarter ReserveFormula = iota
	// ReserveFixed yields a constant number of reserves per slot.
	ReserveFixed
)

// QuotaPolicy is the recovery strategy for a grade missing from the quota map.
type QuotaPolicy int

const (
	// QuotaDefault assigns DefaultQuota and keeps the teacher, with a warning.
	QuotaDefault QuotaPolicy = iota
	// QuotaDrop removes the teacher from the participant pool, with a warning.
	QuotaDrop
)

// SessionBand maps a start-hour range [FromHour, ToHour) to an ordinal
// session code within the day.
type SessionBand struct {
	FromHour int
	ToHour   int
	Session  int
}

// EngineConfig is built once per optimization run and threaded through every
// component. There are no module-level defaults consulted at runtime.
type EngineConfig struct {
	Reserves      ReserveFormula
	FixedReserves int // used when Reserves == ReserveFixed

	SessionBands []SessionBand

	Exclusion ExclusionPolicy

	QuotaPolicy  QuotaPolicy
	DefaultQuota int

	EnableDispersion bool
	DispersionWeight int64
	EnablePresence   bool
	PresenceWeight   int64

	TimeBudget time.Duration
	Workers    int32
	Seed       int32
}

// DefaultConfig mirrors the production constants: four working-day bands,
// strict responsibility exclusion, max(2, rooms/4) reserves, quota 8 fallback,
// dispersion and responsible-presence preferences on, 180s budget, 8 workers.
func DefaultConfig() EngineConfig {
	return EngineConfig{
		Reserves: ReserveMaxQuarter,
		SessionBands: []SessionBand{
			{FromHour: 8, ToHour: 10, Session: 1},
			{FromHour: 10, ToHour: 12, Session: 2},
			{FromHour: 12, ToHour: 14, Session: 3},
			{FromHour: 14, ToHour: 17, Session: 4},
		},
		Exclusion:        ExclusionStrict,
		QuotaPolicy:      QuotaDefault,
		DefaultQuota:     8,
		EnableDispersion: true,
		DispersionWeight: 5,
		EnablePresence:   true,
		PresenceWeight:   2,
		TimeBudget:       180 * time.Second,
		Workers:          8,
	}
}

func (cfg EngineConfig) reserves(rooms int) int {
	if cfg.Reserves == ReserveFixed {
		return cfg.FixedReserves
	}
	return max(2, rooms/4)
}

// session returns the session code for a start hour, or 0 when the hour falls
// outside every configured band.
func (cfg EngineConfig) session(hour int) int {
	for _, band := range cfg.SessionBands {
		if hour >= band.FromHour && hour < band.ToHour {
			return band.Session
		}
	}
	return 0
}
