package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jsvoboda/geoattend/internal/config"
)

// DB wraps the attendance database. SQLite is the default backend; postgres
// and mysql are supported for shared deployments.
type DB struct {
	conn   *sql.DB
	dbType string
}

// New opens the configured database, verifies the connection and ensures the
// schema exists.
func New(cfg config.DatabaseConfig) (*DB, error) {
	var conn *sql.DB
	var err error

	switch cfg.Type {
	case "sqlite":
		conn, err = sql.Open("sqlite3", cfg.SQLitePath)
	case "postgres":
		if cfg.URL == "" {
			return nil, errors.New("database URL is required")
		}
		conn, err = sql.Open("postgres", cfg.URL)
	case "mysql":
		if cfg.MySQLDSN == "" {
			return nil, errors.New("mysql DSN is required")
		}
		conn, err = sql.Open("mysql", cfg.MySQLDSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool.
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, dbType: cfg.Type}

	if err := db.createTables(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

func (db *DB) createTables(ctx context.Context) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	blob := "BLOB"
	switch db.dbType {
	case "postgres":
		serial = "SERIAL PRIMARY KEY"
		blob = "BYTEA"
	case "mysql":
		serial = "INTEGER PRIMARY KEY AUTO_INCREMENT"
	}

	queries := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS attendance (
			id %s,
			user_id TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			distance REAL NOT NULL,
			confidence REAL NOT NULL,
			raw_filename TEXT NOT NULL
		)`, serial),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS enrollments (
			id %s,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			embedding %s NOT NULL,
			created_at TEXT NOT NULL
		)`, serial, blob),
	}

	for _, q := range queries {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// rebind converts ? placeholders to the $n form postgres expects. SQLite and
// mysql take ? as-is.
func (db *DB) rebind(query string) string {
	if db.dbType != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Conn returns the underlying sql.DB for direct access.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Close() error {
	return db.conn.Close()
}
