package player

import (
	"divinity/internal/domain/rosary"
	"divinity/internal/rosary/tts"
)

// Status is the engine's speech state.
type Status int

const (
	StatusIdle Status = iota
	StatusSpeaking
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// Preferences are supplied by the caller; the engine persists nothing.
type Preferences struct {
	AutoAdvance bool
	Haptics     bool
	// Language selects the prayer translation, e.g. "en".
	Language string
	// VoiceLanguage is the narration tag, e.g. "en-US".
	VoiceLanguage string
	Voice         string
	Rate          float64
}

// DefaultPreferences mirrors the defaults of a fresh install.
func DefaultPreferences() Preferences {
	return Preferences{
		AutoAdvance:   true,
		Haptics:       true,
		Language:      "en",
		VoiceLanguage: "en-US",
		Voice:         "default",
		Rate:          0.45,
	}
}

// State is a point-in-time copy of the engine.
type State struct {
	Mystery  rosary.Mystery
	Loaded   bool
	Position int
	Length   int
	Step     rosary.Step
	Status   Status
	Token    tts.Token
}

func (s State) Speaking() bool {
	return s.Status == StatusSpeaking
}

// AtStart reports whether back would be a no-op for position reasons.
func (s State) AtStart() bool {
	return s.Position == 0
}

// AtEnd reports whether the current step is the last one.
func (s State) AtEnd() bool {
	return !s.Loaded || s.Position >= s.Length-1
}

// EventKind names a transition.
type EventKind int

const (
	EventScriptSelected EventKind = iota
	EventCleared
	EventMoved
	EventSpeechStarted
	EventSpeechFinished
	EventStopped
	// EventFinished fires when narration of the last step completes.
	EventFinished
)

func (k EventKind) String() string {
	switch k {
	case EventScriptSelected:
		return "script_selected"
	case EventCleared:
		return "cleared"
	case EventMoved:
		return "moved"
	case EventSpeechStarted:
		return "speech_started"
	case EventSpeechFinished:
		return "speech_finished"
	case EventStopped:
		return "stopped"
	case EventFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event is delivered to OnChange listeners after the transition is applied.
type Event struct {
	Kind  EventKind
	State State
}

// Haptics is the feedback capability the engine drives.
type Haptics interface {
	Click()
	Success()
}

type noHaptics struct{}

func (noHaptics) Click()   {}
func (noHaptics) Success() {}
