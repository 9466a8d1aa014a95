package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("GEOATTEND_SERVER_URL")
	os.Unsetenv("CAMERA_DEVICE")
	os.Unsetenv("RADIUS_METERS")
	os.Unsetenv("DB_TYPE")

	cfg := Load()

	if cfg.Client.ServerURL != "http://localhost:8080" {
		t.Errorf("expected default server URL, got '%s'", cfg.Client.ServerURL)
	}

	if cfg.Camera.Device != "/dev/video0" {
		t.Errorf("expected default camera device, got '%s'", cfg.Camera.Device)
	}

	if cfg.Camera.Width != 640 || cfg.Camera.Height != 480 {
		t.Errorf("expected 640x480 default capture size, got %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}

	if cfg.Server.RadiusMeters != 1000 {
		t.Errorf("expected default radius 1000, got %f", cfg.Server.RadiusMeters)
	}

	if cfg.Database.Type != "sqlite" {
		t.Errorf("expected default db type sqlite, got '%s'", cfg.Database.Type)
	}

	if cfg.Server.MaxUploadSize != 5*1024*1024 {
		t.Errorf("expected 5MB upload cap, got %d", cfg.Server.MaxUploadSize)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GEOATTEND_SERVER_URL", "https://attendance.example.com")
	t.Setenv("RADIUS_METERS", "250")
	t.Setenv("RATE_WINDOW_MS", "5000")
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/att")

	cfg := Load()

	if cfg.Client.ServerURL != "https://attendance.example.com" {
		t.Errorf("expected overridden server URL, got '%s'", cfg.Client.ServerURL)
	}

	if cfg.Server.RadiusMeters != 250 {
		t.Errorf("expected radius 250, got %f", cfg.Server.RadiusMeters)
	}

	if cfg.Server.RateWindowMS != 5000 {
		t.Errorf("expected rate window 5000, got %d", cfg.Server.RateWindowMS)
	}

	if cfg.Database.URL != "postgres://u:p@localhost/att" {
		t.Errorf("unexpected database URL '%s'", cfg.Database.URL)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("CAMERA_WIDTH", "not-a-number")
	t.Setenv("MAX_UPLOAD_SIZE", "-1")

	cfg := Load()

	if cfg.Camera.Width != 640 {
		t.Errorf("expected fallback width 640, got %d", cfg.Camera.Width)
	}

	if cfg.Server.MaxUploadSize != 5*1024*1024 {
		t.Errorf("expected fallback upload cap, got %d", cfg.Server.MaxUploadSize)
	}
}

func TestLoad_StaticLocation(t *testing.T) {
	t.Setenv("GEOATTEND_LAT", "12.97")
	t.Setenv("GEOATTEND_LON", "77.59")

	cfg := Load()

	if !cfg.Location.HasStatic {
		t.Fatal("expected static location to be detected")
	}

	if cfg.Location.Latitude != 12.97 || cfg.Location.Longitude != 77.59 {
		t.Errorf("unexpected static coordinates %f,%f", cfg.Location.Latitude, cfg.Location.Longitude)
	}
}

func TestLoad_MessagesEmbedded(t *testing.T) {
	cfg := Load()

	msgs := cfg.Messages.Messages
	if msgs.OutsideRadius == "" || msgs.NotRecognized == "" || msgs.Marked == "" {
		t.Fatal("expected embedded messages to be populated")
	}

	if msgs.OutsideRadius != "You are outside the allowed radius, so go to the venue and mark your attendance." {
		t.Errorf("unexpected outside-radius message: '%s'", msgs.OutsideRadius)
	}
}
