package schedule

import (
	"fmt"
	"slices"
	"strings"
)

type Role int

const (
	RoleTitulaire Role = iota
	RoleReserve
)

func (r Role) String() string {
	if r == RoleReserve {
		return "RESERVE"
	}
	return "TITULAIRE"
}

// RoomAssignment is the engine's output record. It is denormalized so that
// persistence collaborators can write it back without re-derivation.
type RoomAssignment struct {
	Teacher           int64
	Slot              string
	Date              string
	Start             string
	End               string
	Day               int
	Session           int
	Room              string
	Role              Role
	IsRoomResponsible bool
}

type RoomAllocator interface {
	// Allocate distributes the flat slot-level assignment across concrete
	// rooms: exactly 2 titulaires per room in stable room order, then at
	// most 1 reserve per room in the same order. An incoming count that
	// does not match the slot's required count is an upstream contract
	// violation and fails loudly.
	Allocate(slots []Slot, assignments []Assignment) ([]RoomAssignment, error)
}

func NewRoomAllocator() RoomAllocator {
	return &roomAllocator{}
}

type roomAllocator struct{}

func (allocator *roomAllocator) Allocate(slots []Slot, assignments []Assignment) ([]RoomAssignment, error) {
	bySlot := make(map[string][]Assignment)
	for _, assignment := range assignments {
		bySlot[assignment.Slot] = append(bySlot[assignment.Slot], assignment)
	}

	var plan []RoomAssignment
	for _, slot := range slots {
		slotAssignments := bySlot[slot.ID]
		if len(slotAssignments) != slot.Required {
			return nil, fmt.Errorf("slot %s: got %d assignments, required %d: upstream contract violation",
				slot.ID, len(slotAssignments), slot.Required)
		}
		if len(slotAssignments) < 2*len(slot.Rooms) {
			// Happens when an authoritative room count undercuts the listed
			// room group; staffing every listed room is then impossible.
			return nil, fmt.Errorf("slot %s: %d assignments cannot staff %d listed rooms with 2 titulaires each",
				slot.ID, len(slotAssignments), len(slot.Rooms))
		}

		occupancy := make(map[string]int, len(slot.Rooms))
		record := func(assignment Assignment, room RoomInfo, role Role) {
			occupancy[room.Room]++
			plan = append(plan, RoomAssignment{
				Teacher:           assignment.Teacher,
				Slot:              slot.ID,
				Date:              slot.Date,
				Start:             slot.Start,
				End:               slot.End,
				Day:               slot.DayIndex,
				Session:           slot.Session,
				Room:              room.Room,
				Role:              role,
				IsRoomResponsible: room.Responsible != nil && *room.Responsible == assignment.Teacher,
			})
		}

		// Phase 1: 2 titulaires per room
		idx := 0
		for _, room := range slot.Rooms {
			for range 2 {
				record(slotAssignments[idx], room, RoleTitulaire)
				idx++
			}
		}

		// Phase 2: reserves, at most 1 per room, same stable order
		for _, room := range slot.Rooms {
			if idx >= len(slotAssignments) {
				break
			}
			record(slotAssignments[idx], room, RoleReserve)
			idx++
		}
		if idx != len(slotAssignments) {
			return nil, fmt.Errorf("slot %s: %d assignments left after reserve distribution: reserve count exceeds room count",
				slot.ID, len(slotAssignments)-idx)
		}

		for room, n := range occupancy {
			if n < 2 || n > 3 {
				return nil, fmt.Errorf("slot %s room %s: occupancy %d outside [2,3]", slot.ID, room, n)
			}
		}
	}

	slices.SortFunc(plan, comparePlan)
	return plan, nil
}

func comparePlan(a, b RoomAssignment) int {
	if a.Day != b.Day {
		return a.Day - b.Day
	}
	if c := strings.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	if c := strings.Compare(a.Room, b.Room); c != 0 {
		return c
	}
	if a.Teacher < b.Teacher {
		return -1
	} else if a.Teacher > b.Teacher {
		return 1
	}
	return 0
}
