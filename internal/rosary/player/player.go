// Package player sequences a rosary script through a speech backend.
//
// All entry points, including the backend's completion callback, are
// serialized on one mutex. Each narration request is tagged with the token
// the backend returned; a completion carrying any other token is stale and
// dropped, which is what makes Stop and SelectMystery safe against a
// completion that is already on its way.
package player

import (
	"sync"

	"github.com/sirupsen/logrus"

	"divinity/internal/domain/rosary"
	"divinity/internal/rosary/tts"
)

type haptic int

const (
	hapticClick haptic = iota
	hapticSuccess
)

// outcome collects what must happen once the lock is released.
type outcome struct {
	events  []Event
	haptics []haptic
}

type Player struct {
	synth   tts.Synthesizer
	catalog rosary.Catalog
	haptics Haptics

	mu        sync.Mutex
	mystery   rosary.Mystery
	script    rosary.Script
	position  int
	speaking  bool
	pending   tts.Token
	prefs     Preferences
	listeners []func(Event)
}

// New creates an idle engine with no script. haptics may be nil.
func New(synth tts.Synthesizer, catalog rosary.Catalog, haptics Haptics) *Player {
	if haptics == nil {
		haptics = noHaptics{}
	}
	return &Player{
		synth:   synth,
		catalog: catalog,
		haptics: haptics,
		prefs:   DefaultPreferences(),
	}
}

// OnChange registers a listener. Listeners run on the goroutine that caused
// the transition, after the engine lock is released, in registration order.
func (p *Player) OnChange(fn func(Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// SelectMystery cancels any narration and loads a freshly generated script
// positioned at its first step.
func (p *Player) SelectMystery(m rosary.Mystery) {
	p.load(m, rosary.Generate(m))
}

func (p *Player) load(m rosary.Mystery, script rosary.Script) {
	var out outcome
	p.mu.Lock()
	p.cancelLocked()
	p.mystery = m
	p.script = script
	p.position = 0
	p.record(&out, EventScriptSelected)
	p.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"mystery": m.ID(),
		"steps":   len(script),
	}).Debug("Rosary script selected")
	p.apply(out)
}

// Clear cancels any narration and drops the script.
func (p *Player) Clear() {
	var out outcome
	p.mu.Lock()
	p.cancelLocked()
	p.script = nil
	p.position = 0
	p.record(&out, EventCleared)
	p.mu.Unlock()
	p.apply(out)
}

// SetPreferences replaces the preferences used by the next request and by
// any auto-advance decision still ahead.
func (p *Player) SetPreferences(prefs Preferences) {
	p.mu.Lock()
	p.prefs = prefs
	p.mu.Unlock()
}

func (p *Player) Preferences() Preferences {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prefs
}

// SpeakCurrent narrates the current step. It is a no-op while speaking or
// when the step resolves to no text.
func (p *Player) SpeakCurrent(prefs Preferences) {
	var out outcome
	p.mu.Lock()
	if !p.speaking {
		p.prefs = prefs
	}
	p.speakLocked(&out)
	p.mu.Unlock()
	p.apply(out)
}

func (p *Player) speakLocked(out *outcome) {
	if p.speaking || len(p.script) == 0 {
		return
	}
	text := rosary.Resolve(p.script[p.position], p.catalog, p.prefs.Language)
	if text == "" {
		logrus.WithField("position", p.position).Debug("Nothing to speak for step")
		return
	}

	token, err := p.synth.Speak(tts.Request{
		Text:     text,
		Language: p.prefs.VoiceLanguage,
		Voice:    p.prefs.Voice,
		Rate:     p.prefs.Rate,
	}, p.OnSpeechCompleted)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"engine":   p.synth.Name(),
			"position": p.position,
		}).Warn("Failed to start narration")
		return
	}

	p.speaking = true
	p.pending = token
	p.record(out, EventSpeechStarted)

	logrus.WithFields(logrus.Fields{
		"position": p.position,
		"token":    token,
	}).Debug("Narration started")
}

// OnSpeechCompleted is the backend's completion callback.
func (p *Player) OnSpeechCompleted(token tts.Token) {
	var out outcome
	p.mu.Lock()
	if !p.speaking || token != p.pending {
		p.mu.Unlock()
		logrus.WithField("token", token).Debug("Ignoring stale speech completion")
		return
	}

	p.speaking = false
	p.pending = 0
	p.record(&out, EventSpeechFinished)

	switch {
	case p.position >= p.script.LastIndex():
		p.record(&out, EventFinished)
		if p.prefs.Haptics {
			out.haptics = append(out.haptics, hapticSuccess)
		}
		logrus.WithField("mystery", p.mystery.ID()).Debug("Reached end of script")
	case p.prefs.AutoAdvance:
		p.position++
		if p.prefs.Haptics {
			out.haptics = append(out.haptics, hapticClick)
		}
		p.record(&out, EventMoved)
		p.speakLocked(&out)
	}
	p.mu.Unlock()
	p.apply(out)
}

// Back moves to the previous step. Ignored while speaking or at the start.
func (p *Player) Back() {
	p.move(-1)
}

// Next moves to the following step. Ignored while speaking or at the end.
func (p *Player) Next() {
	p.move(1)
}

// Skip is Next.
func (p *Player) Skip() {
	p.move(1)
}

func (p *Player) move(delta int) {
	var out outcome
	p.mu.Lock()
	target := p.position + delta
	if p.speaking || len(p.script) == 0 || target < 0 || target > p.script.LastIndex() {
		p.mu.Unlock()
		return
	}
	p.position = target
	if p.prefs.Haptics {
		out.haptics = append(out.haptics, hapticClick)
	}
	p.record(&out, EventMoved)
	p.mu.Unlock()
	p.apply(out)
}

// Stop cancels narration in progress. The canceled request never completes.
func (p *Player) Stop() {
	var out outcome
	p.mu.Lock()
	if p.cancelLocked() {
		p.record(&out, EventStopped)
	}
	p.mu.Unlock()
	p.apply(out)
}

func (p *Player) cancelLocked() bool {
	if !p.speaking {
		return false
	}
	if err := p.synth.Cancel(); err != nil {
		logrus.WithError(err).WithField("engine", p.synth.Name()).Warn("Failed to cancel narration")
	}
	logrus.WithField("token", p.pending).Debug("Narration canceled")
	p.speaking = false
	p.pending = 0
	return true
}

// State returns a snapshot of the engine.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Player) stateLocked() State {
	s := State{
		Mystery: p.mystery,
		Loaded:  len(p.script) > 0,
		Length:  len(p.script),
		Token:   p.pending,
	}
	if p.speaking {
		s.Status = StatusSpeaking
	}
	if s.Loaded {
		s.Position = p.position
		s.Step = p.script[p.position]
	}
	return s
}

// Script returns a copy of the loaded script.
func (p *Player) Script() rosary.Script {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(rosary.Script, len(p.script))
	copy(out, p.script)
	return out
}

// ResolveCurrentText returns the text of the current step against catalog in
// lang. It is recomputed on every call.
func (p *Player) ResolveCurrentText(catalog rosary.Catalog, lang string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.script) == 0 {
		return ""
	}
	return rosary.Resolve(p.script[p.position], catalog, lang)
}

// CurrentText resolves the current step with the engine's catalog and language.
func (p *Player) CurrentText() string {
	p.mu.Lock()
	catalog, lang := p.catalog, p.prefs.Language
	p.mu.Unlock()
	return p.ResolveCurrentText(catalog, lang)
}

func (p *Player) record(out *outcome, kind EventKind) {
	if len(p.listeners) == 0 {
		return
	}
	out.events = append(out.events, Event{Kind: kind, State: p.stateLocked()})
}

func (p *Player) apply(out outcome) {
	for _, h := range out.haptics {
		switch h {
		case hapticClick:
			p.haptics.Click()
		case hapticSuccess:
			p.haptics.Success()
		}
	}
	if len(out.events) == 0 {
		return
	}

	p.mu.Lock()
	listeners := make([]func(Event), len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, ev := range out.events {
		for _, fn := range listeners {
			fn(ev)
		}
	}
}
