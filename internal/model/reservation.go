package model

import "time"

// Reservation records a booked time interval on a room for one date.
// Date is a calendar date (YYYY-MM-DD) and StartTime/EndTime are
// zero-padded 24 hour wall clock values (HH:MM).  RoomName is a copy of
// the room's name taken when the reservation was created.
//
// Fields:
//
//	ID        – server-assigned identifier ("res-" + UUIDv7).
//	RoomID    – id of the reserved room.
//	RoomName  – room name snapshot.
//	Date      – reservation date.
//	StartTime – start of the interval (inclusive).
//	EndTime   – end of the interval (exclusive).
//	UserName  – free-text requester name.
//	PartySize – number of people, 1..room capacity.
//	CreatedAt – creation timestamp (UTC).
type Reservation struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	RoomName  string    `json:"roomName"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	UserName  string    `json:"userName"`
	PartySize int       `json:"partySize"`
	CreatedAt time.Time `json:"createdAt"`
}
