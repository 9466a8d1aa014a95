package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var messagesYAML []byte

type Config struct {
	Client      ClientConfig
	Camera      CameraConfig
	Location    LocationConfig
	Server      ServerConfig
	Database    DatabaseConfig
	Recognition RecognitionConfig
	Messages    MessagesConfig
}

type ClientConfig struct {
	ServerURL string // base URL of the attendance server
}

type CameraConfig struct {
	Device string // capture device, e.g. /dev/video0
	Width  int    // requested frame width
	Height int    // requested frame height
}

type LocationConfig struct {
	Command   string  // external helper that prints {"latitude":..,"longitude":..}
	Latitude  float64 // static coordinates used when no command is configured
	Longitude float64
	HasStatic bool
}

type ServerConfig struct {
	CampusLat     float64 // venue latitude
	CampusLon     float64 // venue longitude
	RadiusMeters  float64 // allowed radius around the venue
	TempDir       string  // snapshot scratch directory
	MaxUploadSize int64   // request body cap in bytes
	RateWindowMS  int     // one attempt per client key per window
}

type DatabaseConfig struct {
	Type       string // sqlite, postgres or mysql
	SQLitePath string
	URL        string // postgres connection URL
	MySQLDSN   string
}

type RecognitionConfig struct {
	EmbeddingURL   string // embedding server base URL
	EmbeddingModel string
	Threshold      float64 // minimum confidence to accept a match
	OpenAIToken    string  // enables the face-presence vision check
}

// MessagesConfig holds the fixed user-facing message strings. They are
// embedded rather than env-driven so the client and server agree on the
// exact wording.
type MessagesConfig struct {
	Messages struct {
		OutsideRadius string `yaml:"outside_radius"`
		InsideRadius  string `yaml:"inside_radius"`
		NotRecognized string `yaml:"not_recognized"`
		Marked        string `yaml:"marked"`
		RateLimited   string `yaml:"rate_limited"`
	} `yaml:"messages"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envInt64 is envInt for int64 values (byte sizes).
func envInt64(key string, defaultVal int64) int64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float64.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var messages MessagesConfig
	if err := yaml.Unmarshal(messagesYAML, &messages); err != nil {
		// Embedded file, so this can only happen on a broken build.
		panic("failed to unmarshal embedded messages.yaml: " + err.Error())
	}

	_, hasLat := os.LookupEnv("GEOATTEND_LAT")
	_, hasLon := os.LookupEnv("GEOATTEND_LON")

	return &Config{
		Client: ClientConfig{
			ServerURL: envString("GEOATTEND_SERVER_URL", "http://localhost:8080"),
		},
		Camera: CameraConfig{
			Device: envString("CAMERA_DEVICE", "/dev/video0"),
			Width:  envInt("CAMERA_WIDTH", 640),
			Height: envInt("CAMERA_HEIGHT", 480),
		},
		Location: LocationConfig{
			Command:   os.Getenv("LOCATION_COMMAND"),
			Latitude:  envFloat("GEOATTEND_LAT", 0),
			Longitude: envFloat("GEOATTEND_LON", 0),
			HasStatic: hasLat && hasLon,
		},
		Server: ServerConfig{
			CampusLat:     envFloat("CAMPUS_LAT", 12.80147378887274),
			CampusLon:     envFloat("CAMPUS_LON", 80.22372835171538),
			RadiusMeters:  envFloat("RADIUS_METERS", 1000),
			TempDir:       envString("TEMP_DIR", "temp"),
			MaxUploadSize: envInt64("MAX_UPLOAD_SIZE", 5*1024*1024),
			RateWindowMS:  envInt("RATE_WINDOW_MS", 2000),
		},
		Database: DatabaseConfig{
			Type:       envString("DB_TYPE", "sqlite"),
			SQLitePath: envString("DB_PATH", "./attendance.db"),
			URL:        os.Getenv("DATABASE_URL"),
			MySQLDSN:   os.Getenv("MYSQL_DSN"),
		},
		Recognition: RecognitionConfig{
			EmbeddingURL:   os.Getenv("EMBEDDING_URL"),
			EmbeddingModel: os.Getenv("EMBEDDING_MODEL"),
			Threshold:      envFloat("CONFIDENCE_THRESHOLD", 0.6),
			OpenAIToken:    os.Getenv("OPENAI_TOKEN"),
		},
		Messages: messages,
	}
}
