package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/iliyamo/room-reservation/internal/model"
)

// RecordStore persists the room catalog and the reservation collection.
// Reservations are read and written as a whole: SaveReservations replaces
// the full collection atomically.  Implementations return *StorageError
// when the backing store cannot be read or written.
type RecordStore interface {
	// GetRooms returns every room in insertion order.
	GetRooms(ctx context.Context) ([]model.Room, error)
	// FindRoomByID returns the room with the given id.  The boolean is
	// false when no such room exists.
	FindRoomByID(ctx context.Context, id string) (model.Room, bool, error)
	// GetReservations returns every stored reservation.
	GetReservations(ctx context.Context) ([]model.Reservation, error)
	// SaveReservations overwrites the reservation collection.
	SaveReservations(ctx context.Context, reservations []model.Reservation) error
	// NextReservationID returns a fresh reservation identifier.
	NextReservationID() string
	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}

// GenerateReservationID returns a new reservation identifier.  A UUIDv7
// carries a millisecond timestamp followed by random bits, so ids are
// ordered by creation time and do not collide between concurrent callers.
func GenerateReservationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source fails; fall back to v4.
		return "res-" + uuid.NewString()
	}
	return "res-" + id.String()
}

func findRoom(rooms []model.Room, id string) (model.Room, bool) {
	for _, r := range rooms {
		if r.ID == id {
			return r, true
		}
	}
	return model.Room{}, false
}
