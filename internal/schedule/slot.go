package schedule

import (
	"fmt"
	"slices"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

type RoomInfo struct {
	Room        string
	Responsible *int64
}

// Slot is a (date, start, end) grouping of exam rooms needing supervision.
type Slot struct {
	ID       string
	Date     string
	Start    string
	End      string
	DayIndex int
	Session  int

	Rooms     []RoomInfo
	RoomCount int
	Reserves  int
	Required  int

	// ZeroRooms marks a group whose required count degenerated to the
	// reserve-only term. Not an error, but surfaced by diagnostics since it
	// usually indicates bad input.
	ZeroRooms bool
}

// responsibleFor reports whether teacher code is responsible for at least one
// room of the slot, and whether it is responsible for all of them.
func (s Slot) responsibleFor(code int64) (some bool, all bool) {
	if len(s.Rooms) == 0 {
		return false, false
	}
	all = true
	for _, room := range s.Rooms {
		if room.Responsible != nil && *room.Responsible == code {
			some = true
		} else {
			all = false
		}
	}
	return some, all
}

type SlotBuilder interface {
	// Build groups room rows into slots, resolves required supervisor
	// counts and maps each slot onto its (day, session) pair. Slots with no
	// resolvable session are excluded from scheduling and returned
	// separately.
	Build(rooms []RawRoomRow, counts []RawRoomCountRow) (slots []Slot, unmapped []Slot, err error)
}

func NewSlotBuilder(cfg EngineConfig, logger *zap.Logger) SlotBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &slotBuilder{cfg: cfg, logger: logger}
}

type slotBuilder struct {
	cfg    EngineConfig
	logger *zap.Logger
}

type slotKey struct {
	date  string
	start string
	end   string
}

func (builder *slotBuilder) Build(rooms []RawRoomRow, counts []RawRoomCountRow) ([]Slot, []Slot, error) {
	//** Authoritative room counts per (date, start); the override wins over
	//** the group size when present.
	countOverride := make(map[[2]string]int, len(counts))
	for _, row := range counts {
		countOverride[[2]string{row.Date, normalizeClock(row.Start)}] = row.Count
	}

	//** Group room rows by (date, start, end)
	groups := make(map[slotKey][]RoomInfo)
	for _, row := range rooms {
		if row.Room == "" {
			continue
		}
		key := slotKey{date: row.Date, start: normalizeClock(row.Start), end: normalizeClock(row.End)}
		groups[key] = append(groups[key], RoomInfo{Room: row.Room, Responsible: row.ResponsibleCode})
	}

	//** Rank distinct dates chronologically for the 1-based day index
	dates := lo.Uniq(lo.Map(lo.Keys(groups), func(key slotKey, _ int) string { return key.date }))
	sort.Slice(dates, func(i, j int) bool {
		di, erri := parseDate(dates[i])
		dj, errj := parseDate(dates[j])
		if erri != nil || errj != nil {
			return dates[i] < dates[j]
		}
		return di.Before(dj)
	})
	dayIndex := make(map[string]int, len(dates))
	for i, date := range dates {
		if _, err := parseDate(date); err != nil {
			return nil, nil, fmt.Errorf("invalid exam date %q: %w", date, err)
		}
		dayIndex[date] = i + 1
	}

	var slots, unmapped []Slot
	for key, roomInfos := range groups {
		// Stable room order for deterministic allocation
		slices.SortFunc(roomInfos, func(a, b RoomInfo) int {
			if a.Room < b.Room {
				return -1
			} else if a.Room > b.Room {
				return 1
			}
			return 0
		})

		roomCount := len(roomInfos)
		if override, ok := countOverride[[2]string{key.date, key.start}]; ok {
			if override > 0 && override < len(roomInfos) {
				builder.logger.Warn("authoritative room count below listed room group, allocation will fail",
					zap.String("date", key.date),
					zap.String("start", key.start),
					zap.Int("override", override),
					zap.Int("listed", len(roomInfos)))
			}
			roomCount = override
		}

		reserves := builder.cfg.reserves(roomCount)
		slot := Slot{
			ID:        fmt.Sprintf("%s_%s_%s", key.date, key.start, key.end),
			Date:      key.date,
			Start:     key.start,
			End:       key.end,
			DayIndex:  dayIndex[key.date],
			Session:   builder.cfg.session(clockHour(key.start)),
			Rooms:     roomInfos,
			RoomCount: roomCount,
			Reserves:  reserves,
			Required:  2*roomCount + reserves,
			ZeroRooms: roomCount == 0,
		}

		if slot.ZeroRooms {
			builder.logger.Warn("slot has no rooms, required count degenerates to reserves",
				zap.String("slot", slot.ID),
				zap.Int("required", slot.Required))
		}

		if slot.Session == 0 {
			// Cannot be fairness-compared against dispersion rules, so it
			// is excluded from scheduling entirely.
			builder.logger.Warn("slot start falls outside every session band, excluding from scheduling",
				zap.String("slot", slot.ID),
				zap.String("start", slot.Start))
			unmapped = append(unmapped, slot)
			continue
		}

		slots = append(slots, slot)
	}

	slices.SortFunc(slots, compareSlots)
	slices.SortFunc(unmapped, compareSlots)

	builder.logger.Info("slots built",
		zap.Int("slots", len(slots)),
		zap.Int("unmapped", len(unmapped)),
		zap.Int("requiredTotal", lo.SumBy(slots, func(s Slot) int { return s.Required })))

	return slots, unmapped, nil
}

func compareSlots(a, b Slot) int {
	if a.DayIndex != b.DayIndex {
		return a.DayIndex - b.DayIndex
	}
	if a.Start != b.Start {
		if a.Start < b.Start {
			return -1
		}
		return 1
	}
	return 0
}
