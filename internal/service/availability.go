package service

import "github.com/iliyamo/room-reservation/internal/model"

// Times are fixed-width "HH:MM" strings, so lexical order equals
// chronological order and they are compared as strings throughout.

// Overlaps reports whether the requested interval [start, end) collides
// with an existing interval [existingStart, existingEnd).  A conflict is
// any of: the request starts inside the existing interval, the request
// ends inside it, or the request contains it.  Touching endpoints do not
// conflict.
func Overlaps(existingStart, existingEnd, start, end string) bool {
	startsInside := existingStart <= start && start < existingEnd
	endsInside := existingStart < end && end <= existingEnd
	contains := start <= existingStart && end >= existingEnd
	return startsInside || endsInside || contains
}

// FindConflict returns the first reservation in snapshot that occupies
// roomID on date and overlaps [start, end).
func FindConflict(snapshot []model.Reservation, roomID, date, start, end string) (model.Reservation, bool) {
	for _, r := range snapshot {
		if r.RoomID != roomID || r.Date != date {
			continue
		}
		if Overlaps(r.StartTime, r.EndTime, start, end) {
			return r, true
		}
	}
	return model.Reservation{}, false
}

// IsAvailable reports whether roomID is free on date for [start, end)
// given the reservations in snapshot.
func IsAvailable(snapshot []model.Reservation, roomID, date, start, end string) bool {
	_, taken := FindConflict(snapshot, roomID, date, start, end)
	return !taken
}
