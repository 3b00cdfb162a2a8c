package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/room-reservation/internal/model"
)

// MySQLStore keeps rooms and reservations in MySQL.  Dates and times are
// stored as their canonical "YYYY-MM-DD" / "HH:MM" strings so that the
// database orders them the same way the service compares them.  The
// position column preserves insertion order across rewrites.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore returns a store bound to the given database handle.
func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

// insertChunk bounds the number of rows per INSERT statement.
const insertChunk = 500

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		capacity INT NOT NULL,
		position INT NOT NULL DEFAULT 0
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		position INT NOT NULL,
		room_id VARCHAR(64) NOT NULL,
		room_name VARCHAR(255) NOT NULL,
		date CHAR(10) NOT NULL,
		start_time CHAR(5) NOT NULL,
		end_time CHAR(5) NOT NULL,
		user_name VARCHAR(255) NOT NULL,
		party_size INT NOT NULL,
		created_at DATETIME(3) NOT NULL,
		KEY idx_reservations_room_date (room_id, date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the rooms and reservations tables when missing.
func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return storageErr("create schema", err)
		}
	}
	return nil
}

// SeedRooms inserts rooms that are not present yet.  Existing rows are left
// untouched so an operator's edits survive restarts.
func (s *MySQLStore) SeedRooms(ctx context.Context, rooms []model.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	query := `INSERT IGNORE INTO rooms (id, name, capacity, position) VALUES `
	args := make([]interface{}, 0, len(rooms)*4)
	for i, r := range rooms {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, r.ID, r.Name, r.Capacity, i)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return storageErr("seed rooms", err)
	}
	return nil
}

// GetRooms returns every room ordered by position.
func (s *MySQLStore) GetRooms(ctx context.Context) ([]model.Room, error) {
	const q = `SELECT id, name, capacity FROM rooms ORDER BY position, id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, storageErr("read rooms", err)
	}
	defer rows.Close()
	out := []model.Room{}
	for rows.Next() {
		var r model.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.Capacity); err != nil {
			return nil, storageErr("read rooms", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read rooms", err)
	}
	return out, nil
}

// FindRoomByID looks up a single room.
func (s *MySQLStore) FindRoomByID(ctx context.Context, id string) (model.Room, bool, error) {
	const q = `SELECT id, name, capacity FROM rooms WHERE id = ? LIMIT 1`
	var r model.Room
	err := s.db.QueryRowContext(ctx, q, id).Scan(&r.ID, &r.Name, &r.Capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Room{}, false, nil
	}
	if err != nil {
		return model.Room{}, false, storageErr("read room", err)
	}
	return r, true, nil
}

// GetReservations returns every reservation in insertion order.
func (s *MySQLStore) GetReservations(ctx context.Context) ([]model.Reservation, error) {
	const q = `SELECT id, room_id, room_name, date, start_time, end_time, user_name, party_size, created_at
	           FROM reservations
	           ORDER BY position`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, storageErr("read reservations", err)
	}
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		var r model.Reservation
		if err := rows.Scan(&r.ID, &r.RoomID, &r.RoomName, &r.Date, &r.StartTime, &r.EndTime,
			&r.UserName, &r.PartySize, &r.CreatedAt); err != nil {
			return nil, storageErr("read reservations", err)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read reservations", err)
	}
	return out, nil
}

// SaveReservations replaces the reservations table inside one transaction,
// so a failed write leaves the previous collection in place.
func (s *MySQLStore) SaveReservations(ctx context.Context, reservations []model.Reservation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("write reservations", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations`); err != nil {
		return storageErr("write reservations", err)
	}
	for start := 0; start < len(reservations); start += insertChunk {
		end := start + insertChunk
		if end > len(reservations) {
			end = len(reservations)
		}
		if err := insertReservationsTx(ctx, tx, reservations[start:end], start); err != nil {
			return storageErr("write reservations", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storageErr("write reservations", err)
	}
	committed = true
	return nil
}

// insertReservationsTx writes one chunk with a multi-row INSERT; offset is
// the position of the first row.
func insertReservationsTx(ctx context.Context, tx *sql.Tx, chunk []model.Reservation, offset int) error {
	if len(chunk) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO reservations
		(id, position, room_id, room_name, date, start_time, end_time, user_name, party_size, created_at) VALUES `)
	args := make([]interface{}, 0, len(chunk)*10)
	for i, r := range chunk {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, r.ID, offset+i, r.RoomID, r.RoomName, r.Date, r.StartTime, r.EndTime,
			r.UserName, r.PartySize, r.CreatedAt.UTC())
	}
	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

// NextReservationID returns a fresh reservation identifier.
func (s *MySQLStore) NextReservationID() string { return GenerateReservationID() }

// Ping verifies the database connection.
func (s *MySQLStore) Ping(ctx context.Context) error {
	return storageErr("ping", s.db.PingContext(ctx))
}
