package client

import "fmt"

// Tone is the severity class attached to a status message.
type Tone string

const (
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
)

// RecognizedEntry is one accepted recognition, keyed by user identifier.
// At most one entry per user is displayed within a session.
type RecognizedEntry struct {
	UserID     string
	Confidence float64
}

// Display is the UI surface the controller drives: a status region, the
// recognized list (newest first) and the start/stop controls.
type Display interface {
	Status(tone Tone, msg string)
	AddRecognized(entry RecognizedEntry)
	SetControls(startEnabled, stopEnabled bool)
}

// TermDisplay renders the session to the terminal.
type TermDisplay struct{}

func (TermDisplay) Status(tone Tone, msg string) {
	fmt.Printf("[%s] %s\n", tone, msg)
}

func (TermDisplay) AddRecognized(entry RecognizedEntry) {
	fmt.Printf("User: %s [%d%%]\n", entry.UserID, roundPercent(entry.Confidence))
}

func (TermDisplay) SetControls(startEnabled, stopEnabled bool) {
	// The terminal has no buttons to toggle; Ctrl+C is the stop control.
}
