package camera

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

const (
	// DefaultWidth and DefaultHeight are the requested capture resolution
	// and the fallback when the device does not report one.
	DefaultWidth  = 640
	DefaultHeight = 480

	captureTimeout = 15 * time.Second
)

// FFmpegCamera grabs single frames from a capture device by shelling out to
// ffmpeg. Video only, no audio. One FFmpegCamera serves one session at a
// time.
type FFmpegCamera struct {
	ffmpegPath string
	device     string
	width      int
	height     int
	tempDir    string

	mu      sync.Mutex
	started bool
}

// NewFFmpegCamera locates ffmpeg and prepares a scratch directory. The
// device is not touched until Start.
func NewFFmpegCamera(device string, width, height int) (*FFmpegCamera, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, &CameraError{Reason: "ffmpeg not found in PATH", Err: err}
	}

	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}

	tempDir := filepath.Join(os.TempDir(), "geoattend-frames")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, &CameraError{Reason: "failed to create temp directory", Err: err}
	}

	return &FFmpegCamera{
		ffmpegPath: ffmpegPath,
		device:     device,
		width:      width,
		height:     height,
		tempDir:    tempDir,
	}, nil
}

// Start verifies the device is present and claims it for the session.
func (c *FFmpegCamera) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return &CameraError{Reason: "camera already in use"}
	}

	// Device nodes only exist on v4l2 platforms; elsewhere ffmpeg resolves
	// the input itself and errors surface on the first capture.
	if runtime.GOOS == "linux" {
		if _, err := os.Stat(c.device); err != nil {
			return &CameraError{Reason: fmt.Sprintf("capture device %s not available", c.device), Err: err}
		}
	}

	c.started = true
	return nil
}

// Capture grabs one frame at the requested resolution and returns it as a
// JPEG encoded at the session quality.
func (c *FFmpegCamera) Capture(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil, &CameraError{Reason: "camera not started"}
	}
	c.mu.Unlock()

	tempFile := filepath.Join(c.tempDir, fmt.Sprintf("grab_%d.jpg", time.Now().UnixNano()))
	defer os.Remove(tempFile)

	ctx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	args := []string{
		"-f", inputFormat(),
		"-video_size", fmt.Sprintf("%dx%d", c.width, c.height),
		"-i", c.device,
		"-frames:v", "1",
		"-f", "mjpeg",
		"-y",
		tempFile,
	}

	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &CameraError{
			Reason: fmt.Sprintf("frame grab failed: %s", firstLine(stderr.String())),
			Err:    err,
		}
	}

	raw, err := os.ReadFile(tempFile)
	if err != nil {
		return nil, &CameraError{Reason: "failed to read grabbed frame", Err: err}
	}

	frame, err := EncodeJPEG(raw)
	if err != nil {
		return nil, &CameraError{Reason: "failed to encode frame", Err: err}
	}

	return frame, nil
}

// Stop releases the device. Idempotent.
func (c *FFmpegCamera) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
	return nil
}

func inputFormat() string {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	default:
		return "v4l2"
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
