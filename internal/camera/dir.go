package camera

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DirCamera replays JPEG frames from a directory in filename order, cycling
// when it reaches the end. Used by tests and for dry runs without a device.
type DirCamera struct {
	dir string

	mu      sync.Mutex
	frames  []string
	next    int
	started bool
}

func NewDirCamera(dir string) *DirCamera {
	return &DirCamera{dir: dir}
}

func (c *DirCamera) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return &CameraError{Reason: "camera already in use"}
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return &CameraError{Reason: "frame directory not available", Err: err}
	}

	c.frames = c.frames[:0]
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".jpg" || ext == ".jpeg" || ext == ".png" {
			c.frames = append(c.frames, filepath.Join(c.dir, entry.Name()))
		}
	}
	sort.Strings(c.frames)

	if len(c.frames) == 0 {
		return &CameraError{Reason: "no frames in directory"}
	}

	c.next = 0
	c.started = true
	return nil
}

func (c *DirCamera) Capture(_ context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil, &CameraError{Reason: "camera not started"}
	}

	path := c.frames[c.next%len(c.frames)]
	c.next++

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &CameraError{Reason: "failed to read frame", Err: err}
	}

	frame, err := EncodeJPEG(raw)
	if err != nil {
		return nil, &CameraError{Reason: "failed to encode frame", Err: err}
	}

	return frame, nil
}

func (c *DirCamera) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
	return nil
}
