package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// locationTimeout bounds a single location request. Helpers that take longer
// than this (cold GPS fix, unresponsive service) fail the session start.
const locationTimeout = 10 * time.Second

// LocationError reports a failed location acquisition. Its message is shown
// to the user verbatim.
type LocationError struct {
	Reason string
	Err    error
}

func (e *LocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("location error: %s: %v", e.Reason, e.Err)
	}
	return "location error: " + e.Reason
}

func (e *LocationError) Unwrap() error {
	return e.Err
}

// Provider resolves the device's current coordinates.
type Provider interface {
	Current(ctx context.Context) (Coordinates, error)
}

// StaticProvider always returns a fixed coordinate pair. Used for kiosks at
// a known position and for flag-supplied coordinates.
type StaticProvider struct {
	Coords Coordinates
}

func (p *StaticProvider) Current(_ context.Context) (Coordinates, error) {
	return p.Coords, nil
}

// CommandProvider obtains coordinates from an external helper (gpsd wrapper,
// termux-location and the like). The helper must print a JSON object with
// "latitude" and "longitude" fields and is expected to run in high-accuracy
// mode.
type CommandProvider struct {
	Command string // command line, split on whitespace
}

func (p *CommandProvider) Current(ctx context.Context) (Coordinates, error) {
	fields := strings.Fields(p.Command)
	if len(fields) == 0 {
		return Coordinates{}, &LocationError{Reason: "location service not configured"}
	}

	if _, err := exec.LookPath(fields[0]); err != nil {
		return Coordinates{}, &LocationError{Reason: "location helper not available", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, locationTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, fields[0], fields[1:]...).Output()
	if ctx.Err() == context.DeadlineExceeded {
		return Coordinates{}, &LocationError{Reason: "location request timed out"}
	}
	if err != nil {
		return Coordinates{}, &LocationError{Reason: "location request failed", Err: err}
	}

	var coords Coordinates
	if err := json.Unmarshal(out, &coords); err != nil {
		return Coordinates{}, &LocationError{Reason: "invalid location helper output", Err: err}
	}

	return coords, nil
}
