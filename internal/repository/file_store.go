package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/room-reservation/internal/model"
)

// FileStore keeps rooms and reservations as JSON arrays on disk.  The room
// catalog is loaded once when the store is opened; it may be a JSON or a
// YAML file.  Reservations are re-read on every call and rewritten whole on
// every save through a temp file + rename so readers never observe a
// partially written collection.
type FileStore struct {
	roomsPath        string
	reservationsPath string

	mu    sync.RWMutex
	rooms []model.Room
}

// NewFileStore opens a file-backed store.  reservationsPath is created
// (with its parent directory) on first save.  A missing rooms file yields
// an empty catalog; an unreadable or malformed one is an error.
func NewFileStore(roomsPath, reservationsPath string) (*FileStore, error) {
	if strings.TrimSpace(reservationsPath) == "" {
		return nil, errors.New("reservations path is required")
	}
	s := &FileStore{roomsPath: roomsPath, reservationsPath: reservationsPath}
	rooms, err := LoadRooms(roomsPath)
	if err != nil {
		return nil, err
	}
	s.rooms = rooms
	return s, nil
}

// LoadRooms reads a room catalog from a .json, .yaml or .yml file.  An
// empty path yields no rooms.
func LoadRooms(path string) ([]model.Room, error) {
	if strings.TrimSpace(path) == "" {
		return []model.Room{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Room{}, nil
	}
	if err != nil {
		return nil, storageErr("read rooms", err)
	}
	rooms := []model.Room{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &rooms)
	default:
		err = json.Unmarshal(data, &rooms)
	}
	if err != nil {
		return nil, storageErr("parse rooms", err)
	}
	seen := make(map[string]struct{}, len(rooms))
	for _, r := range rooms {
		if strings.TrimSpace(r.ID) == "" {
			return nil, storageErr("parse rooms", errors.New("room without id"))
		}
		if _, dup := seen[r.ID]; dup {
			return nil, storageErr("parse rooms", fmt.Errorf("duplicate room id %q", r.ID))
		}
		if r.Capacity <= 0 {
			return nil, storageErr("parse rooms", fmt.Errorf("room %q has non-positive capacity", r.ID))
		}
		seen[r.ID] = struct{}{}
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	return rooms, nil
}

// GetRooms returns a copy of the room catalog.
func (s *FileStore) GetRooms(ctx context.Context) ([]model.Room, error) {
	out := make([]model.Room, len(s.rooms))
	copy(out, s.rooms)
	return out, nil
}

// FindRoomByID looks a room up in the catalog.
func (s *FileStore) FindRoomByID(ctx context.Context, id string) (model.Room, bool, error) {
	r, ok := findRoom(s.rooms, id)
	return r, ok, nil
}

// GetReservations reads the reservation file.  A missing file is an empty
// collection.
func (s *FileStore) GetReservations(ctx context.Context) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readReservations()
}

func (s *FileStore) readReservations() ([]model.Reservation, error) {
	data, err := os.ReadFile(s.reservationsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Reservation{}, nil
	}
	if err != nil {
		return nil, storageErr("read reservations", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []model.Reservation{}, nil
	}
	out := []model.Reservation{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, storageErr("parse reservations", err)
	}
	return out, nil
}

// SaveReservations replaces the reservation file.
func (s *FileStore) SaveReservations(ctx context.Context, reservations []model.Reservation) error {
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	data, err := json.MarshalIndent(reservations, "", "  ")
	if err != nil {
		return storageErr("encode reservations", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return storageErr("write reservations", writeFileAtomic(s.reservationsPath, data))
}

// NextReservationID returns a fresh reservation identifier.
func (s *FileStore) NextReservationID() string { return GenerateReservationID() }

// Ping checks that the reservation directory is reachable.
func (s *FileStore) Ping(ctx context.Context) error {
	dir := filepath.Dir(s.reservationsPath)
	if _, err := os.Stat(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storageErr("stat data dir", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
