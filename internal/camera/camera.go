package camera

import (
	"context"
	"fmt"
)

// CameraError reports a failed camera acquisition or capture. The session
// aborts and controls reset when Start fails with it.
type CameraError struct {
	Reason string
	Err    error
}

func (e *CameraError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("camera error: %s: %v", e.Reason, e.Err)
	}
	return "camera error: " + e.Reason
}

func (e *CameraError) Unwrap() error {
	return e.Err
}

// Camera provides exclusive access to a video source for one session.
// Start must be called before Capture; Stop releases the source and is safe
// to call more than once.
type Camera interface {
	Start(ctx context.Context) error
	Capture(ctx context.Context) ([]byte, error)
	Stop() error
}
