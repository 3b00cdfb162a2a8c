package service

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository"
)

// Reservation event types.
const (
	EventReservationCreated  = "reservation.created"
	EventReservationCanceled = "reservation.canceled"
)

// Logger is the subset of echo.Logger used by the service.
type Logger interface {
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// EventPublisher delivers reservation lifecycle events.  Failures are
// logged and never fail the operation that produced the event.
type EventPublisher interface {
	PublishReservation(ctx context.Context, eventType string, r model.Reservation, at time.Time) error
}

// Options configure a ReservationService.  Zero values are usable.
type Options struct {
	Now            func() time.Time
	Location       *time.Location
	Publisher      EventPublisher
	Logger         Logger
	PublishTimeout time.Duration
}

// ReservationService implements the reservation use cases on top of a
// RecordStore.  Create and Cancel read the whole collection, change it and
// write it back; they hold writeMu for the full cycle so two writers in
// this process never interleave.
type ReservationService struct {
	store     repository.RecordStore
	validator *ReservationValidator
	now       func() time.Time
	publisher EventPublisher
	logger    Logger
	pubTO     time.Duration

	writeMu sync.Mutex
	pending sync.WaitGroup
}

// NewReservationService wires the service to store.
func NewReservationService(store repository.RecordStore, opts Options) *ReservationService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	to := opts.PublishTimeout
	if to <= 0 {
		to = 5 * time.Second
	}
	return &ReservationService{
		store:     store,
		validator: NewReservationValidator(store, now, opts.Location),
		now:       now,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		pubTO:     to,
	}
}

// Rooms returns the room catalog.
func (s *ReservationService) Rooms(ctx context.Context) ([]model.Room, error) {
	return s.store.GetRooms(ctx)
}

// Room returns a single room or ErrRoomNotFound.
func (s *ReservationService) Room(ctx context.Context, id string) (model.Room, error) {
	r, ok, err := s.store.FindRoomByID(ctx, id)
	if err != nil {
		return model.Room{}, err
	}
	if !ok {
		return model.Room{}, ErrRoomNotFound
	}
	return r, nil
}

// Create validates req, checks the slot against the current reservations
// and persists the new reservation.  Nothing is written unless every
// check passes.  Malformed requests are rejected before the store is read.
func (s *ReservationService) Create(ctx context.Context, req ReservationRequest) (model.Reservation, error) {
	if _, err := s.validator.CheckRequest(req); err != nil {
		return model.Reservation{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snapshot, err := s.store.GetReservations(ctx)
	if err != nil {
		s.logf("read reservations: %v", err)
		return model.Reservation{}, err
	}
	in, err := s.validator.Validate(ctx, req, snapshot)
	if err != nil {
		return model.Reservation{}, err
	}

	res := model.Reservation{
		ID:        s.store.NextReservationID(),
		RoomID:    in.Room.ID,
		RoomName:  in.Room.Name,
		Date:      in.Date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		UserName:  in.UserName,
		PartySize: in.PartySize,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond), // DATETIME(3) precision
	}
	next := make([]model.Reservation, 0, len(snapshot)+1)
	next = append(next, snapshot...)
	next = append(next, res)
	if err := s.store.SaveReservations(ctx, next); err != nil {
		s.logf("save reservations: %v", err)
		return model.Reservation{}, err
	}
	s.publish(EventReservationCreated, res)
	return res, nil
}

// List returns every reservation.
func (s *ReservationService) List(ctx context.Context) ([]model.Reservation, error) {
	return s.store.GetReservations(ctx)
}

// ListByRoom returns a room and its reservations.  An unknown room is
// ErrRoomNotFound; a known room without reservations yields an empty
// slice.
func (s *ReservationService) ListByRoom(ctx context.Context, roomID string) (model.Room, []model.Reservation, error) {
	room, err := s.Room(ctx, roomID)
	if err != nil {
		return model.Room{}, nil, err
	}
	all, err := s.store.GetReservations(ctx)
	if err != nil {
		return model.Room{}, nil, err
	}
	out := []model.Reservation{}
	for _, r := range all {
		if r.RoomID == roomID {
			out = append(out, r)
		}
	}
	return room, out, nil
}

// Cancel removes the reservation with the given id and returns it.
func (s *ReservationService) Cancel(ctx context.Context, id string) (model.Reservation, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	all, err := s.store.GetReservations(ctx)
	if err != nil {
		s.logf("read reservations: %v", err)
		return model.Reservation{}, err
	}
	idx := -1
	for i, r := range all {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Reservation{}, ErrReservationNotFound
	}
	removed := all[idx]
	next := make([]model.Reservation, 0, len(all)-1)
	next = append(next, all[:idx]...)
	next = append(next, all[idx+1:]...)
	if err := s.store.SaveReservations(ctx, next); err != nil {
		s.logf("save reservations: %v", err)
		return model.Reservation{}, err
	}
	s.publish(EventReservationCanceled, removed)
	return removed, nil
}

// Wait blocks until in-flight event publications finish.
func (s *ReservationService) Wait() { s.pending.Wait() }

func (s *ReservationService) publish(eventType string, r model.Reservation) {
	if s.publisher == nil {
		return
	}
	at := s.now().UTC()
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.pubTO)
		defer cancel()
		if err := s.publisher.PublishReservation(ctx, eventType, r, at); err != nil && s.logger != nil {
			s.logger.Warnf("publish %s for %s: %v", eventType, r.ID, err)
		}
	}()
}

func (s *ReservationService) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Errorf(format, args...)
	}
}
