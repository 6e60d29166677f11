package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Raw rows are the loader adapter's output contract: the engine never touches
// heterogeneous upstream records, only these typed rows.

type RawTeacherRow struct {
	Code         int64  `mapstructure:"code"`
	LastName     string `mapstructure:"lastName"`
	FirstName    string `mapstructure:"firstName"`
	Email        string `mapstructure:"email"`
	Grade        string `mapstructure:"grade"`
	Participates *bool  `mapstructure:"participates"`
}

type RawRoomRow struct {
	Date            string `mapstructure:"date"`
	Start           string `mapstructure:"start"`
	End             string `mapstructure:"end"`
	Room            string `mapstructure:"room"`
	ResponsibleCode *int64 `mapstructure:"responsible"`
}

type RawWishRow struct {
	Code    int64 `mapstructure:"code"`
	Day     int   `mapstructure:"day"`
	Session int   `mapstructure:"session"`
}

type RawQuotaRow struct {
	Grade string `mapstructure:"grade"`
	Quota int    `mapstructure:"quota"`
}

// RawRoomCountRow is an authoritative room count for a (date, start) group,
// overriding the group size. It exists because some room groupings omit rooms
// with no listed occupant.
type RawRoomCountRow struct {
	Date  string `mapstructure:"date"`
	Start string `mapstructure:"start"`
	Count int    `mapstructure:"count"`
}

type Input struct {
	Teachers   []RawTeacherRow   `mapstructure:"teachers"`
	Rooms      []RawRoomRow      `mapstructure:"rooms"`
	Wishes     []RawWishRow      `mapstructure:"wishes"`
	Quotas     []RawQuotaRow     `mapstructure:"quotas"`
	RoomCounts []RawRoomCountRow `mapstructure:"roomCounts"`
}

func InputFromJson(file string) (Input, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Input{}, err
	}

	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return Input{}, err
	}

	var input Input
	if err := mapstructure.Decode(inputJson, &input); err != nil {
		return Input{}, fmt.Errorf("cannot decode input: %w", err)
	}

	return input, nil
}

// normalizeClock reduces "HH:MM:SS" or "DD/MM/YYYY HH:MM:SS" to "HH:MM".
func normalizeClock(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, ' '); i >= 0 {
		raw = raw[i+1:]
	}
	if len(raw) > 5 {
		raw = raw[:5]
	}
	return raw
}

// clockHour extracts the hour from a normalized or raw clock string. Returns
// -1 when no hour can be parsed.
func clockHour(raw string) int {
	clock := normalizeClock(raw)
	head, _, found := strings.Cut(clock, ":")
	if !found {
		return -1
	}
	hour, err := strconv.Atoi(head)
	if err != nil || hour < 0 || hour > 23 {
		return -1
	}
	return hour
}

// parseDate parses a "DD/MM/YYYY" exam date. Dates must order chronologically,
// not lexically, so the day index builder needs the parsed form.
func parseDate(raw string) (time.Time, error) {
	return time.Parse("02/01/2006", strings.TrimSpace(raw))
}
