package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-reservation/internal/model"
)

const roomsJSON = `[
  {"id": "room-1", "name": "Sala A", "capacity": 4},
  {"id": "room-2", "name": "Sala B", "capacity": 10}
]`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestFileStoreRooms(t *testing.T) {
	dir := t.TempDir()
	rooms := filepath.Join(dir, "rooms.json")
	writeFile(t, rooms, roomsJSON)

	s, err := NewFileStore(rooms, filepath.Join(dir, "reservations.json"))
	require.NoError(t, err)

	got, err := s.GetRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "room-1", got[0].ID)
	assert.Equal(t, "room-2", got[1].ID)

	r, ok, err := s.FindRoomByID(context.Background(), "room-2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 10, r.Capacity)

	_, ok, err = s.FindRoomByID(context.Background(), "room-9")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreYAMLRooms(t *testing.T) {
	dir := t.TempDir()
	rooms := filepath.Join(dir, "rooms.yaml")
	writeFile(t, rooms, "- id: room-1\n  name: Sala A\n  capacity: 4\n")

	s, err := NewFileStore(rooms, filepath.Join(dir, "reservations.json"))
	require.NoError(t, err)
	got, err := s.GetRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Room{{ID: "room-1", Name: "Sala A", Capacity: 4}}, got)
}

func TestFileStoreBadRooms(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"corrupt.json": "[{",
		"dup.json":     `[{"id":"a","name":"A","capacity":1},{"id":"a","name":"B","capacity":1}]`,
		"nocap.json":   `[{"id":"a","name":"A","capacity":0}]`,
		"noid.json":    `[{"name":"A","capacity":3}]`,
	} {
		path := filepath.Join(dir, name)
		writeFile(t, path, body)
		_, err := NewFileStore(path, filepath.Join(dir, "reservations.json"))
		assert.True(t, IsStorageError(err), name)
	}
}

func TestFileStoreMissingFilesAreEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "none.json"), filepath.Join(dir, "sub", "reservations.json"))
	require.NoError(t, err)

	rooms, err := s.GetRooms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rooms)

	res, err := s.GetReservations(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestFileStoreSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	resPath := filepath.Join(dir, "data", "reservations.json")
	s, err := NewFileStore("", resPath)
	require.NoError(t, err)

	created := time.Date(2030, 1, 1, 9, 30, 0, 0, time.UTC)
	in := []model.Reservation{
		{ID: "res-1", RoomID: "room-1", RoomName: "Sala A", Date: "2030-01-02",
			StartTime: "09:00", EndTime: "10:00", UserName: "Ana", PartySize: 2, CreatedAt: created},
		{ID: "res-2", RoomID: "room-1", RoomName: "Sala A", Date: "2030-01-02",
			StartTime: "10:00", EndTime: "11:00", UserName: "Luis", PartySize: 3, CreatedAt: created},
	}
	require.NoError(t, s.SaveReservations(context.Background(), in))

	raw, err := os.ReadFile(resPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n  {"))
	assert.Contains(t, string(raw), `"roomId": "room-1"`)

	// a fresh store sees the same collection in the same order
	s2, err := NewFileStore("", resPath)
	require.NoError(t, err)
	out, err := s2.GetReservations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, in, out)

	require.NoError(t, s.SaveReservations(context.Background(), nil))
	out, err = s.GetReservations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)

	entries, err := os.ReadDir(filepath.Dir(resPath))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStoreCorruptReservations(t *testing.T) {
	dir := t.TempDir()
	resPath := filepath.Join(dir, "reservations.json")
	writeFile(t, resPath, "{not json")
	s, err := NewFileStore("", resPath)
	require.NoError(t, err)

	_, err = s.GetReservations(context.Background())
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "parse reservations", se.Op)
}

func TestFileStoreEmptyReservationFile(t *testing.T) {
	dir := t.TempDir()
	resPath := filepath.Join(dir, "reservations.json")
	writeFile(t, resPath, "  \n")
	s, err := NewFileStore("", resPath)
	require.NoError(t, err)
	out, err := s.GetReservations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGenerateReservationID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := GenerateReservationID()
		require.True(t, strings.HasPrefix(id, "res-"))
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
