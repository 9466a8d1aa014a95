package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jsvoboda/geoattend/internal/camera"
	"github.com/jsvoboda/geoattend/internal/geo"
)

const (
	// DefaultInterval is the snapshot upload period.
	DefaultInterval = 3000 * time.Millisecond

	// throttleSlack is subtracted from the interval to form the minimum
	// gap between two upload attempts. With the default interval this
	// yields the 2800ms guard against timer drift causing bursts.
	throttleSlack = 200 * time.Millisecond
)

// Config wires a Controller's collaborators.
type Config struct {
	API      *API
	Location geo.Provider
	Camera   camera.Camera
	Display  Display

	// Interval between snapshot uploads; DefaultInterval when zero.
	Interval time.Duration

	// OutsideMessage is the fixed fallback shown for every outside-radius
	// denial. NotRecognizedMessage is the generic no-match fallback.
	OutsideMessage       string
	NotRecognizedMessage string
}

// Controller is the attendance client's state machine. It is either idle or
// runs exactly one session; the camera handle and the polling ticker live on
// the session and are both present while active and both absent while idle.
type Controller struct {
	api              *API
	location         geo.Provider
	camera           camera.Camera
	display          Display
	interval         time.Duration
	outsideMsg       string
	notRecognizedMsg string

	mu       sync.Mutex
	session  *session
	starting bool // claims the session slot during the start prologue
	attempts atomic.Int64
}

// session holds everything owned by one active capture session. Created on
// a successful start, destroyed on stop.
type session struct {
	cancel      context.CancelFunc
	ticker      *time.Ticker
	cam         camera.Camera
	coords      geo.Coordinates // fetched once at start, immutable
	lastAttempt time.Time
	seen        map[string]struct{}
	done        chan struct{}
}

func New(cfg Config) *Controller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Controller{
		api:              cfg.API,
		location:         cfg.Location,
		camera:           cfg.Camera,
		display:          cfg.Display,
		interval:         interval,
		outsideMsg:       cfg.OutsideMessage,
		notRecognizedMsg: cfg.NotRecognizedMessage,
	}
}

// Active reports whether a session is running.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// UploadAttempts returns the number of upload cycles that passed the
// throttle since the controller was created.
func (c *Controller) UploadAttempts() int64 {
	return c.attempts.Load()
}

// Start runs the session prologue in order: location, zone verification,
// camera acquisition, then the snapshot loop with an immediate first cycle.
// Any prologue failure is shown to the user and returns the controller to
// idle with the start control re-enabled.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.session != nil || c.starting {
		c.mu.Unlock()
		return errors.New("session already active")
	}
	c.starting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
	}()

	c.display.SetControls(false, false)
	c.display.Status(ToneInfo, "Acquiring location...")

	coords, err := c.location.Current(ctx)
	if err != nil {
		// The platform failure message is surfaced verbatim.
		c.display.Status(ToneError, err.Error())
		c.display.SetControls(true, false)
		return err
	}

	c.display.Status(ToneInfo, "Verifying location...")
	verdict, status, err := c.api.VerifyLocation(ctx, coords)
	if err != nil {
		c.display.Status(ToneError, "Location verification failed: "+err.Error())
		c.display.SetControls(true, false)
		return err
	}
	if msg, denied := denialMessage(verdict, status, c.outsideMsg); denied {
		c.display.Status(ToneError, msg)
		c.display.SetControls(true, false)
		return &ZoneDeniedError{Message: msg}
	}

	if err := c.camera.Start(ctx); err != nil {
		c.display.Status(ToneError, err.Error())
		c.display.SetControls(true, false)
		return err
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &session{
		cancel: cancel,
		ticker: time.NewTicker(c.interval),
		cam:    c.camera,
		coords: coords,
		seen:   make(map[string]struct{}),
		done:   make(chan struct{}),
	}

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	c.display.SetControls(false, true)
	c.display.Status(ToneInfo, "Camera active. Uploading snapshots...")

	go c.run(sctx, s)
	return nil
}

// Stop tears the active session down: cancels the loop, stops the ticker
// and releases the camera. Safe to call when idle or more than once.
func (c *Controller) Stop() {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()

	if s == nil {
		return
	}

	s.cancel()
	s.ticker.Stop()
	<-s.done

	if err := s.cam.Stop(); err != nil {
		log.Printf("releasing camera: %v", err)
	}

	c.display.Status(ToneInfo, "Stopped.")
	c.display.SetControls(true, false)
}

// run executes upload cycles serially in a single goroutine, which preserves
// the location → verification → camera → first-upload ordering and rules out
// overlapping uploads within a session.
func (c *Controller) run(ctx context.Context, s *session) {
	defer close(s.done)

	if err := c.cycle(ctx, s); err != nil {
		log.Printf("snapshot cycle: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ticker.C:
			if err := c.cycle(ctx, s); err != nil {
				log.Printf("snapshot cycle: %v", err)
			}
		}
	}
}

// cycle performs one capture-and-upload attempt. Failures are displayed and
// returned for logging but never stop the loop.
func (c *Controller) cycle(ctx context.Context, s *session) error {
	if ctx.Err() != nil {
		return nil
	}

	// Client-side throttle: timer drift must not cause bursts. The very
	// first attempt is exempt.
	if !s.lastAttempt.IsZero() && time.Since(s.lastAttempt) < c.interval-throttleSlack {
		return nil
	}
	s.lastAttempt = time.Now()
	c.attempts.Add(1)

	frame, err := s.cam.Capture(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		uerr := &UploadError{Reason: "capture failed", Err: err}
		c.display.Status(ToneError, "Capture failed: "+err.Error())
		return uerr
	}

	verdict, status, err := c.api.MarkAttendance(ctx, frame, s.coords)
	if ctx.Err() != nil {
		// Session stopped while the upload was in flight; drop the result.
		return nil
	}
	if err != nil {
		uerr := &UploadError{Reason: "network failure", Err: err}
		c.display.Status(ToneError, "Network error: "+err.Error())
		return uerr
	}

	switch {
	case status < 200 || status > 299:
		msg := verdict.Message
		if msg == "" {
			if verdict.Reason != "" {
				msg = fmt.Sprintf("Upload failed (%s)", verdict.Reason)
			} else {
				msg = fmt.Sprintf("Upload failed (HTTP %d)", status)
			}
		}
		c.display.Status(ToneError, msg)
		return &UploadError{Reason: msg}

	case verdict.Success:
		c.display.Status(ToneSuccess, fmt.Sprintf("Recognized %s (conf %d%%)", verdict.UserID, roundPercent(verdict.Confidence)))
		if _, ok := s.seen[verdict.UserID]; !ok {
			// First sighting wins; repeats add no entry.
			s.seen[verdict.UserID] = struct{}{}
			c.display.AddRecognized(RecognizedEntry{UserID: verdict.UserID, Confidence: verdict.Confidence})
		}
		return nil

	default:
		msg := verdict.Message
		if msg == "" {
			msg = c.notRecognizedMsg
		}
		c.display.Status(ToneError, msg)
		return nil
	}
}

// denialMessage interprets a verification verdict. Non-2xx responses show
// the server message unless it is missing, flags reason outside_radius, or
// contains "outside" in any case; those all collapse to the fixed fallback.
// A 2xx response with allowed=false is a denial with the fallback message,
// guarding against a server that reports success with a negative decision.
func denialMessage(v *VerifyResponse, status int, fallback string) (string, bool) {
	if status >= 200 && status <= 299 {
		if v.Allowed {
			return "", false
		}
		return fallback, true
	}

	msg := v.Message
	if msg == "" || v.Reason == "outside_radius" || strings.Contains(strings.ToLower(msg), "outside") {
		msg = fallback
	}
	return msg, true
}

func roundPercent(confidence float64) int {
	return int(math.Round(confidence * 100))
}
