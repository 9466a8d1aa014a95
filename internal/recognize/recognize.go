package recognize

import "context"

// Match is one identified face.
type Match struct {
	UserID     string
	Confidence float64 // 0-1
}

// Recognizer maps a JPEG snapshot to an enrolled user. A nil *Match with
// nil error means no face in the snapshot matched anyone enrolled.
type Recognizer interface {
	Recognize(ctx context.Context, jpeg []byte) (*Match, error)
}
