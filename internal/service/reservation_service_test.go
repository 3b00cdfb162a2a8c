package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository"
)

// memStore is an in-memory RecordStore with failure injection.
type memStore struct {
	mu           sync.Mutex
	rooms        []model.Room
	reservations []model.Reservation
	readErr      error
	saveErr      error
	saves        int
	seq          int64
}

func newMemStore(rooms ...model.Room) *memStore { return &memStore{rooms: rooms} }

func (m *memStore) GetRooms(ctx context.Context) ([]model.Room, error) {
	return append([]model.Room(nil), m.rooms...), nil
}

func (m *memStore) FindRoomByID(ctx context.Context, id string) (model.Room, bool, error) {
	for _, r := range m.rooms {
		if r.ID == id {
			return r, true, nil
		}
	}
	return model.Room{}, false, nil
}

func (m *memStore) GetReservations(ctx context.Context) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	return append([]model.Reservation{}, m.reservations...), nil
}

func (m *memStore) SaveReservations(ctx context.Context, rs []model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.reservations = append([]model.Reservation{}, rs...)
	return nil
}

func (m *memStore) NextReservationID() string {
	return fmt.Sprintf("res-%d", atomic.AddInt64(&m.seq, 1))
}

func (m *memStore) Ping(ctx context.Context) error { return nil }

type recordedEvent struct {
	eventType string
	id        string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (f *fakePublisher) PublishReservation(ctx context.Context, eventType string, r model.Reservation, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{eventType, r.ID})
	return f.err
}

type nopLogger struct{ warns, errs int32 }

func (l *nopLogger) Warnf(string, ...interface{})  { atomic.AddInt32(&l.warns, 1) }
func (l *nopLogger) Errorf(string, ...interface{}) { atomic.AddInt32(&l.errs, 1) }

var salaA = model.Room{ID: "room-1", Name: "Sala A", Capacity: 10}

func newTestService(store repository.RecordStore, pub EventPublisher) *ReservationService {
	return NewReservationService(store, Options{
		Now:       func() time.Time { return fixedNow },
		Publisher: pub,
		Logger:    &nopLogger{},
	})
}

func request(start, end string, party int) ReservationRequest {
	return ReservationRequest{
		RoomID:    "room-1",
		Date:      "2030-01-11",
		StartTime: start,
		EndTime:   end,
		UserName:  "Ana",
		PartySize: PartySizeOf(party),
	}
}

func TestCreateRoundTrip(t *testing.T) {
	store := newMemStore(salaA)
	svc := newTestService(store, nil)

	res, err := svc.Create(context.Background(), request("10:00", "12:00", 4))
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "room-1", res.RoomID)
	assert.Equal(t, "Sala A", res.RoomName)
	assert.Equal(t, "2030-01-11", res.Date)
	assert.Equal(t, "10:00", res.StartTime)
	assert.Equal(t, "12:00", res.EndTime)
	assert.Equal(t, "Ana", res.UserName)
	assert.Equal(t, 4, res.PartySize)
	assert.Equal(t, fixedNow, res.CreatedAt)

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, res, all[0])
}

func TestCreatedAtKeepsMillisecondPrecision(t *testing.T) {
	now := time.Date(2030, 1, 10, 12, 0, 0, 123456789, time.UTC)
	store := newMemStore(salaA)
	svc := NewReservationService(store, Options{Now: func() time.Time { return now }})

	res, err := svc.Create(context.Background(), request("10:00", "12:00", 4))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 10, 12, 0, 0, 123000000, time.UTC), res.CreatedAt)

	// A store with millisecond columns hands back exactly what Create returned.
	all, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, res, all[0])

	canceled, err := svc.Cancel(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.CreatedAt, canceled.CreatedAt)
}

func TestCreateRejectsMalformedRequestBeforeReadingStore(t *testing.T) {
	store := newMemStore(salaA)
	store.readErr = &repository.StorageError{Op: "parse reservations", Err: errors.New("unexpected EOF")}
	svc := newTestService(store, nil)

	req := request("10:00", "11:00", 2)
	req.RoomID = ""
	_, err := svc.Create(context.Background(), req)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "roomId", ve.Field)
	assert.False(t, repository.IsStorageError(err))

	// A well-formed request still surfaces the storage failure.
	_, err = svc.Create(context.Background(), request("10:00", "11:00", 2))
	assert.True(t, repository.IsStorageError(err))
}

func TestCreateNonOverlappingAndAdjacent(t *testing.T) {
	svc := newTestService(newMemStore(salaA), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, request("09:00", "10:00", 2))
	require.NoError(t, err)
	_, err = svc.Create(ctx, request("10:00", "11:00", 2))
	require.NoError(t, err)
	_, err = svc.Create(ctx, request("14:00", "15:00", 2))
	require.NoError(t, err)
}

func TestCreateOverlapConflicts(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name       string
		start, end string
	}{
		{"overlaps start", "09:00", "11:00"},
		{"contained", "10:30", "11:30"},
		{"contains", "09:00", "13:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore(salaA)
			svc := newTestService(store, nil)
			_, err := svc.Create(ctx, request("10:00", "12:00", 2))
			require.NoError(t, err)

			_, err = svc.Create(ctx, request(tc.start, tc.end, 2))
			assert.True(t, IsConflict(err), "got %v", err)
			assert.Equal(t, 1, store.saves)
		})
	}
}

func TestCreateCapacity(t *testing.T) {
	svc := newTestService(newMemStore(salaA), nil)
	_, err := svc.Create(context.Background(), request("10:00", "11:00", 10))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), request("11:00", "12:00", 11))
	assert.True(t, IsValidation(err))
}

func TestCreatePastDateWritesNothing(t *testing.T) {
	store := newMemStore(salaA)
	svc := newTestService(store, nil)
	req := request("10:00", "11:00", 2)
	req.Date = "2020-01-01"
	_, err := svc.Create(context.Background(), req)
	assert.True(t, IsValidation(err))
	assert.Zero(t, store.saves)
}

func TestCreateStorageFailures(t *testing.T) {
	readFail := &repository.StorageError{Op: "read reservations", Err: errors.New("eio")}
	store := newMemStore(salaA)
	store.readErr = readFail
	svc := newTestService(store, nil)
	_, err := svc.Create(context.Background(), request("10:00", "11:00", 2))
	assert.True(t, repository.IsStorageError(err))

	store = newMemStore(salaA)
	store.saveErr = &repository.StorageError{Op: "write reservations", Err: errors.New("enospc")}
	pub := &fakePublisher{}
	svc = newTestService(store, pub)
	_, err = svc.Create(context.Background(), request("10:00", "11:00", 2))
	assert.True(t, repository.IsStorageError(err))
	svc.Wait()
	assert.Empty(t, pub.events)
}

func TestCancel(t *testing.T) {
	store := newMemStore(salaA)
	svc := newTestService(store, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, request("10:00", "11:00", 2))
	require.NoError(t, err)
	keep, err := svc.Create(ctx, request("11:00", "12:00", 2))
	require.NoError(t, err)

	removed, err := svc.Cancel(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res, removed)

	_, byRoom, err := svc.ListByRoom(ctx, "room-1")
	require.NoError(t, err)
	require.Len(t, byRoom, 1)
	assert.Equal(t, keep.ID, byRoom[0].ID)

	_, err = svc.Cancel(ctx, res.ID)
	assert.ErrorIs(t, err, ErrReservationNotFound)

	// the freed slot can be booked again
	_, err = svc.Create(ctx, request("10:00", "11:00", 2))
	assert.NoError(t, err)
}

func TestListByRoom(t *testing.T) {
	salaB := model.Room{ID: "room-2", Name: "Sala B", Capacity: 4}
	svc := newTestService(newMemStore(salaA, salaB), nil)
	ctx := context.Background()

	_, _, err := svc.ListByRoom(ctx, "room-404")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	room, empty, err := svc.ListByRoom(ctx, "room-2")
	require.NoError(t, err)
	assert.Equal(t, salaB, room)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = svc.Create(ctx, request("10:00", "11:00", 2))
	require.NoError(t, err)
	_, got, err := svc.ListByRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRoomLookup(t *testing.T) {
	svc := newTestService(newMemStore(salaA), nil)
	r, err := svc.Room(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, salaA, r)
	_, err = svc.Room(context.Background(), "x")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	rooms, err := svc.Rooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Room{salaA}, rooms)
}

func TestConcurrentCreatesSameSlot(t *testing.T) {
	store := newMemStore(salaA)
	svc := newTestService(store, nil)

	const workers = 20
	var ok, conflicts int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Create(context.Background(), request("10:00", "11:00", 2))
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case IsConflict(err):
				atomic.AddInt32(&conflicts, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(workers-1), conflicts)
	all, err := store.GetReservations(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEventsPublished(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(newMemStore(salaA), pub)
	ctx := context.Background()

	res, err := svc.Create(ctx, request("10:00", "11:00", 2))
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, res.ID)
	require.NoError(t, err)
	svc.Wait()

	assert.ElementsMatch(t, []recordedEvent{
		{EventReservationCreated, res.ID},
		{EventReservationCanceled, res.ID},
	}, pub.events)
}

func TestPublishFailureDoesNotFailCreate(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	log := &nopLogger{}
	svc := NewReservationService(newMemStore(salaA), Options{
		Now:       func() time.Time { return fixedNow },
		Publisher: pub,
		Logger:    log,
	})
	_, err := svc.Create(context.Background(), request("10:00", "11:00", 2))
	require.NoError(t, err)
	svc.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&log.warns))
}
