package database

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

const recordsLimit = 200

// AttendanceRecord is one successful or attempted recognition.
type AttendanceRecord struct {
	ID          int64   `json:"id"`
	UserID      string  `json:"user_id"`
	Timestamp   string  `json:"timestamp"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Distance    float64 `json:"distance"`
	Confidence  float64 `json:"confidence"`
	RawFilename string  `json:"raw_filename"`
}

// Enrollment is one stored face embedding for a user.
type Enrollment struct {
	ID        int64
	UserID    string
	Name      string
	Embedding []float32
	CreatedAt string
}

// InsertAttendance stores one attendance row. Unrecognized attempts are
// stored with an empty user_id so they can be audited later.
func (db *DB) InsertAttendance(ctx context.Context, rec AttendanceRecord) error {
	query := db.rebind(`
		INSERT INTO attendance (user_id, timestamp, latitude, longitude, distance, confidence, raw_filename)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)

	ts := rec.Timestamp
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339)
	}

	if _, err := db.conn.ExecContext(ctx, query,
		rec.UserID, ts, rec.Latitude, rec.Longitude, rec.Distance, rec.Confidence, rec.RawFilename); err != nil {
		return fmt.Errorf("failed to insert attendance: %w", err)
	}
	return nil
}

// ListRecords returns the newest attendance rows, most recent first.
func (db *DB) ListRecords(ctx context.Context) ([]AttendanceRecord, error) {
	query := db.rebind(`
		SELECT id, user_id, timestamp, latitude, longitude, distance, confidence, raw_filename
		FROM attendance
		ORDER BY id DESC
		LIMIT ?`)

	rows, err := db.conn.QueryContext(ctx, query, recordsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []AttendanceRecord
	for rows.Next() {
		var rec AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Timestamp, &rec.Latitude,
			&rec.Longitude, &rec.Distance, &rec.Confidence, &rec.RawFilename); err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attendance rows: %w", err)
	}
	return records, nil
}

// InsertEnrollment stores a face embedding for a user.
func (db *DB) InsertEnrollment(ctx context.Context, userID, name string, embedding []float32) error {
	if len(embedding) == 0 {
		return errors.New("empty embedding")
	}

	query := db.rebind(`
		INSERT INTO enrollments (user_id, name, embedding, created_at)
		VALUES (?, ?, ?, ?)`)

	if _, err := db.conn.ExecContext(ctx, query,
		userID, name, encodeEmbedding(embedding), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to insert enrollment: %w", err)
	}
	return nil
}

// ListEnrollments returns all stored enrollments, used to rebuild the
// recognition index on startup.
func (db *DB) ListEnrollments(ctx context.Context) ([]Enrollment, error) {
	query := `
		SELECT id, user_id, name, embedding, created_at
		FROM enrollments
		ORDER BY id`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []Enrollment
	for rows.Next() {
		var e Enrollment
		var raw []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment row: %w", err)
		}
		e.Embedding, err = decodeEmbedding(raw)
		if err != nil {
			return nil, fmt.Errorf("enrollment %d: %w", e.ID, err)
		}
		enrollments = append(enrollments, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read enrollment rows: %w", err)
	}
	return enrollments, nil
}

// encodeEmbedding packs float32 values little-endian for blob storage.
func encodeEmbedding(embedding []float32) []byte {
	buf := make([]byte, 4*len(embedding))
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("malformed embedding blob of %d bytes", len(raw))
	}
	embedding := make([]float32, len(raw)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return embedding, nil
}
