package tts

import (
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// wordsPerMinute at normal rate, used to simulate reading time
const wordsPerMinute = 150.0

// MockSynthesizer pretends to narrate: completion fires after the time a
// reader would need for the text at the requested rate.
type MockSynthesizer struct {
	// Scale shrinks or stretches simulated durations; 1 is real time.
	Scale float64

	tokens  tokenSource
	mutex   sync.Mutex
	pending Token
	timer   *time.Timer
}

func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{Scale: 1}
}

func (m *MockSynthesizer) Name() string {
	return EngineTypeMock.String()
}

// Duration estimates how long text takes to read at rate.
func (m *MockSynthesizer) Duration(text string, rate float64) time.Duration {
	words := float64(len(strings.Fields(text)))
	minutes := words / (wordsPerMinute * Multiplier(rate))
	scale := m.Scale
	if scale <= 0 {
		scale = 1
	}
	return time.Duration(minutes * scale * float64(time.Minute))
}

func (m *MockSynthesizer) Speak(req Request, done func(Token)) (Token, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.pending != 0 {
		return 0, ErrBusy
	}

	token := m.tokens.next()
	m.pending = token
	duration := m.Duration(req.Text, req.Rate)

	logrus.WithFields(logrus.Fields{
		"token":    token,
		"duration": duration,
	}).Debug("Simulating narration")

	m.timer = time.AfterFunc(duration, func() {
		m.mutex.Lock()
		active := m.pending == token
		if active {
			m.pending = 0
			m.timer = nil
		}
		m.mutex.Unlock()

		if active && done != nil {
			done(token)
		}
	})
	return token, nil
}

func (m *MockSynthesizer) Cancel() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.pending = 0
	return nil
}

func (m *MockSynthesizer) Voices() ([]string, error) {
	return []string{"mock-voice"}, nil
}
