// internal/rosary/tts/tts.go
package tts

import (
	"errors"
	"sync/atomic"
)

// NormalRate is the preference value that maps to the backend's normal speed.
const NormalRate = 0.5

var (
	// ErrBusy is returned when Speak is called while another utterance is pending.
	ErrBusy = errors.New("synthesizer already speaking")
	// ErrUnsupported is returned for engines not available on this platform.
	ErrUnsupported = errors.New("unsupported TTS engine")
)

// Token identifies one narration request.
type Token uint64

// Request is a single narration.
type Request struct {
	Text     string
	Language string  // BCP 47 tag, e.g. en-US
	Voice    string  // backend specific; empty or "default" lets the backend pick
	Rate     float64 // preference scale where NormalRate is normal speed
}

// Synthesizer narrates text asynchronously.
//
// Speak returns immediately. done is invoked exactly once per returned token
// on the synthesizer's own goroutine, unless Cancel runs first; after Cancel
// the pending completion is suppressed.
type Synthesizer interface {
	Name() string
	Speak(req Request, done func(Token)) (Token, error)
	Cancel() error
	Voices() ([]string, error)
}

type Config struct {
	Type     string
	Voice    string
	CacheDir string
}

// Multiplier converts a preference rate into a speed factor where 1.0 is normal.
func Multiplier(rate float64) float64 {
	if rate <= 0 {
		return 1.0
	}
	return rate / NormalRate
}

type tokenSource struct {
	last atomic.Uint64
}

func (t *tokenSource) next() Token {
	return Token(t.last.Add(1))
}
