package client

import "fmt"

// ZoneDeniedError reports an explicit or implicit denial from zone
// verification. Message is exactly what was shown to the user.
type ZoneDeniedError struct {
	Message string
}

func (e *ZoneDeniedError) Error() string {
	return "zone denied: " + e.Message
}

// UploadError reports a failed snapshot cycle. It never stops the session;
// the next tick retries naturally.
type UploadError struct {
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload error: %s: %v", e.Reason, e.Err)
	}
	return "upload error: " + e.Reason
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
