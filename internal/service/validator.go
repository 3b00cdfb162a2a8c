package service

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

const dateLayout = "2006-01-02"

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// PartySize holds the partySize field exactly as the client sent it, so
// that a missing value and a non-integer value can be reported
// differently.  It accepts a JSON number or a numeric string.
type PartySize struct {
	raw string
	set bool
}

// PartySizeOf returns a PartySize holding n.
func PartySizeOf(n int) PartySize { return PartySize{raw: strconv.Itoa(n), set: true} }

func (p *PartySize) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = PartySize{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PartySize{raw: strings.TrimSpace(s), set: true}
		return nil
	}
	*p = PartySize{raw: string(b), set: true}
	return nil
}

func (p PartySize) MarshalJSON() ([]byte, error) {
	if !p.set {
		return []byte("null"), nil
	}
	if n, ok := p.value(); ok {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(p.raw)
}

func (p PartySize) blank() bool { return !p.set || p.raw == "" }

// value coerces the raw value to an int.  Numbers without a fractional
// part are integers whatever their spelling (4, "4", 4.0, 1e1); 2.5 is
// not.  Magnitudes beyond int32 are clamped so they fail the capacity check
// rather than overflow.
func (p PartySize) value() (int, bool) {
	if n, err := strconv.Atoi(p.raw); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(p.raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32, true
	case f < math.MinInt32:
		return math.MinInt32, true
	}
	return int(f), true
}

// ReservationRequest is the client input for creating a reservation.
type ReservationRequest struct {
	RoomID    string    `json:"roomId"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	UserName  string    `json:"userName"`
	PartySize PartySize `json:"partySize"`
}

// RoomFinder resolves room ids.  repository.RecordStore satisfies it.
type RoomFinder interface {
	FindRoomByID(ctx context.Context, id string) (model.Room, bool, error)
}

// ValidatedRequest is a request that passed every check, with its fields
// trimmed and the room resolved.
type ValidatedRequest struct {
	Room      model.Room
	Date      string
	StartTime string
	EndTime   string
	UserName  string
	PartySize int
}

// ReservationValidator applies the reservation rules in a fixed order and
// stops at the first failure.
type ReservationValidator struct {
	rooms RoomFinder
	now   func() time.Time
	loc   *time.Location
}

// NewReservationValidator returns a validator that resolves rooms through
// rooms and decides what "today" is with now in loc.
func NewReservationValidator(rooms RoomFinder, now func() time.Time, loc *time.Location) *ReservationValidator {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReservationValidator{rooms: rooms, now: now, loc: loc}
}

// Validate checks req against the rules and the reservation snapshot.
// It returns a *ValidationError, ErrRoomNotFound, a *ConflictError or a
// storage error from the room lookup.
func (v *ReservationValidator) Validate(ctx context.Context, req ReservationRequest, snapshot []model.Reservation) (ValidatedRequest, error) {
	in, err := v.CheckRequest(req)
	if err != nil {
		return in, err
	}
	roomID := strings.TrimSpace(req.RoomID)

	room, ok, err := v.rooms.FindRoomByID(ctx, roomID)
	if err != nil {
		return in, err
	}
	if !ok {
		return in, ErrRoomNotFound
	}
	in.Room = room

	n, ok := req.PartySize.value()
	if !ok {
		return in, invalid("partySize", "partySize must be an integer")
	}
	if n <= 0 {
		return in, invalid("partySize", "partySize must be greater than 0")
	}
	if n > room.Capacity {
		return in, invalid("partySize", "room %s has a maximum capacity of %d people", room.Name, room.Capacity)
	}
	in.PartySize = n

	if c, taken := FindConflict(snapshot, room.ID, in.Date, in.StartTime, in.EndTime); taken {
		return in, &ConflictError{
			RoomID:        room.ID,
			Date:          in.Date,
			StartTime:     in.StartTime,
			EndTime:       in.EndTime,
			ConflictingID: c.ID,
		}
	}
	return in, nil
}

// CheckRequest runs the checks that need neither the store nor the room:
// required fields, date and time formats, ordering and the past-date rule.
func (v *ReservationValidator) CheckRequest(req ReservationRequest) (ValidatedRequest, error) {
	in := ValidatedRequest{
		Date:      strings.TrimSpace(req.Date),
		StartTime: strings.TrimSpace(req.StartTime),
		EndTime:   strings.TrimSpace(req.EndTime),
		UserName:  strings.TrimSpace(req.UserName),
	}
	roomID := strings.TrimSpace(req.RoomID)

	required := []struct {
		field string
		blank bool
	}{
		{"roomId", roomID == ""},
		{"date", in.Date == ""},
		{"startTime", in.StartTime == ""},
		{"endTime", in.EndTime == ""},
		{"userName", in.UserName == ""},
		{"partySize", req.PartySize.blank()},
	}
	for _, r := range required {
		if r.blank {
			return in, invalid(r.field, "%s is required", r.field)
		}
	}

	if !datePattern.MatchString(in.Date) {
		return in, invalid("date", "invalid date format, use YYYY-MM-DD")
	}
	day, err := time.ParseInLocation(dateLayout, in.Date, v.loc)
	if err != nil {
		return in, invalid("date", "date %s is not a valid calendar date", in.Date)
	}

	if !timePattern.MatchString(in.StartTime) {
		return in, invalid("startTime", "invalid startTime format, use HH:MM (00:00-23:59)")
	}
	if !timePattern.MatchString(in.EndTime) {
		return in, invalid("endTime", "invalid endTime format, use HH:MM (00:00-23:59)")
	}
	if in.StartTime >= in.EndTime {
		return in, invalid("endTime", "endTime must be after startTime")
	}

	today := v.now().In(v.loc).Format(dateLayout)
	if day.Format(dateLayout) < today {
		return in, invalid("date", "reservations cannot be made for past dates")
	}
	return in, nil
}
