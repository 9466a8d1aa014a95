//go:build integration

package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jsvoboda/geoattend/internal/config"
)

func setupTestContainer(t *testing.T) (*DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := New(config.DatabaseConfig{Type: "postgres", URL: dbURL})
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to open database: %v", err)
	}

	cleanup := func() {
		db.Close()
		container.Terminate(ctx)
	}

	return db, cleanup
}

func TestPostgresAttendance(t *testing.T) {
	db, cleanup := setupTestContainer(t)
	if db == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	t.Run("InsertAndList", func(t *testing.T) {
		err := db.InsertAttendance(ctx, AttendanceRecord{
			UserID:      "jiri.novak",
			Latitude:    12.8014,
			Longitude:   80.2237,
			Distance:    42.5,
			Confidence:  0.91,
			RawFilename: "snap_1700000000000.jpg",
		})
		if err != nil {
			t.Fatalf("Failed to insert attendance: %v", err)
		}

		records, err := db.ListRecords(ctx)
		if err != nil {
			t.Fatalf("Failed to list records: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("Expected 1 record, got %d", len(records))
		}
		if records[0].UserID != "jiri.novak" {
			t.Errorf("Expected user_id 'jiri.novak', got '%s'", records[0].UserID)
		}
	})

	t.Run("Enrollments", func(t *testing.T) {
		embedding := make([]float32, 512)
		for i := range embedding {
			embedding[i] = float32(i) / 512.0
		}

		if err := db.InsertEnrollment(ctx, "jiri.novak", "Jiří Novák", embedding); err != nil {
			t.Fatalf("Failed to insert enrollment: %v", err)
		}

		enrollments, err := db.ListEnrollments(ctx)
		if err != nil {
			t.Fatalf("Failed to list enrollments: %v", err)
		}
		if len(enrollments) != 1 {
			t.Fatalf("Expected 1 enrollment, got %d", len(enrollments))
		}
		if len(enrollments[0].Embedding) != 512 {
			t.Errorf("Expected 512 dimensions, got %d", len(enrollments[0].Embedding))
		}
	})
}
