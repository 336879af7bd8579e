package player

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"divinity/internal/domain/prayer"
	"divinity/internal/domain/rosary"
	"divinity/internal/rosary/tts"
)

// fakeSynth records requests and completes only when the test says so.
type fakeSynth struct {
	mu       sync.Mutex
	last     tts.Token
	requests []tts.Request
	dones    map[tts.Token]func(tts.Token)
	cancels  int
	failNext error
}

func newFakeSynth() *fakeSynth {
	return &fakeSynth{dones: make(map[tts.Token]func(tts.Token))}
}

func (f *fakeSynth) Name() string { return "fake" }

func (f *fakeSynth) Speak(req tts.Request, done func(tts.Token)) (tts.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return 0, err
	}
	f.last++
	f.requests = append(f.requests, req)
	f.dones[f.last] = done
	return f.last, nil
}

func (f *fakeSynth) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	f.dones = make(map[tts.Token]func(tts.Token))
	return nil
}

func (f *fakeSynth) Voices() ([]string, error) { return nil, nil }

// complete delivers the completion for token as the backend would.
func (f *fakeSynth) complete(t *testing.T, token tts.Token) {
	t.Helper()
	f.mu.Lock()
	done, ok := f.dones[token]
	delete(f.dones, token)
	f.mu.Unlock()
	if !ok {
		t.Fatalf("no outstanding request for token %d", token)
	}
	done(token)
}

func (f *fakeSynth) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeSynth) lastRequest() tts.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type countingHaptics struct {
	clicks, successes int
}

func (h *countingHaptics) Click()   { h.clicks++ }
func (h *countingHaptics) Success() { h.successes++ }

func testCatalog(t *testing.T) *prayer.Catalog {
	t.Helper()
	catalog, err := prayer.Load(strings.NewReader(`{"prayers":[
		{"id":"our_father","title":"Our Father","translations":{"en":"Our Father","es":"Padre nuestro"}},
		{"id":"hail_mary","title":"Hail Mary","translations":{"en":"Hail Mary"}},
		{"id":"glory_be","title":"Glory Be","translations":{"en":"Glory Be"}},
		{"id":"silent","title":"Silent","translations":{"la":"Tacet"}}
	]}`))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return catalog
}

func threeSteps() rosary.Script {
	return rosary.Script{
		{ID: "1", Title: "Our Father", Content: rosary.PrayerReference("our_father")},
		{ID: "2", Title: "Hail Mary", Content: rosary.PrayerReference("hail_mary")},
		{ID: "3", Title: "Glory Be", Content: rosary.PrayerReference("glory_be")},
	}
}

func manualPrefs() Preferences {
	prefs := DefaultPreferences()
	prefs.AutoAdvance = false
	return prefs
}

func TestNewPlayerIsEmptyAndIdle(t *testing.T) {
	p := New(newFakeSynth(), nil, nil)
	state := p.State()
	if state.Loaded || state.Speaking() || state.Length != 0 {
		t.Fatalf("unexpected initial state: %+v", state)
	}
	p.Back()
	p.Next()
	p.SpeakCurrent(DefaultPreferences())
	p.Stop()
	if p.CurrentText() != "" {
		t.Fatal("expected no text without a script")
	}
}

func TestSelectMysteryResetsEvenMidNarration(t *testing.T) {
	synth := newFakeSynth()
	p := New(synth, testCatalog(t), nil)

	p.SelectMystery(rosary.Glorious)
	p.Next()
	p.Next()
	p.SpeakCurrent(DefaultPreferences())
	stale := p.State().Token
	if !p.State().Speaking() {
		t.Fatal("expected speaking after SpeakCurrent")
	}

	p.SelectMystery(rosary.Glorious)
	state := p.State()
	if state.Position != 0 || state.Speaking() || state.Token != 0 {
		t.Fatalf("expected reset idle state, got %+v", state)
	}
	if synth.cancels != 1 {
		t.Fatalf("expected one cancel, got %d", synth.cancels)
	}
	if state.Length != rosary.StepCount {
		t.Fatalf("expected full script, got %d steps", state.Length)
	}

	p.OnSpeechCompleted(stale)
	if after := p.State(); after.Position != 0 || after.Speaking() {
		t.Fatalf("stale completion changed state: %+v", after)
	}
}

func TestSelectMysteryWhileIdleDoesNotCancel(t *testing.T) {
	synth := newFakeSynth()
	p := New(synth, nil, nil)
	p.SelectMystery(rosary.Joyful)
	p.SelectMystery(rosary.Joyful)
	if synth.cancels != 0 {
		t.Fatalf("expected no cancel while idle, got %d", synth.cancels)
	}
	if got := p.State().Mystery; got != rosary.Joyful {
		t.Fatalf("unexpected mystery %s", got)
	}
}

func TestSpeakCurrentWhileSpeakingIsIgnored(t *testing.T) {
	synth := newFakeSynth()
	p := New(synth, testCatalog(t), nil)
	p.load(rosary.Joyful, threeSteps())

	p.SpeakCurrent(manualPrefs())
	before := p.State()

	other := manualPrefs()
	other.Language = "es"
	p.SpeakCurrent(other)

	after := p.State()
	if synth.requestCount() != 1 {
		t.Fatalf("expected one request, got %d", synth.requestCount())
	}
	if after != before {
		t.Fatalf("state changed: before %+v after %+v", before, after)
	}
	if p.Preferences().Language != "en" {
		t.Fatal("preferences must not change while speaking")
	}
}

func TestNavigationBounds(t *testing.T) {
	h := &countingHaptics{}
	p := New(newFakeSynth(), testCatalog(t), h)
	p.load(rosary.Joyful, threeSteps())

	p.Back()
	if got := p.State().Position; got != 0 {
		t.Fatalf("back at start moved to %d", got)
	}
	if h.clicks != 0 {
		t.Fatal("no-op back must not click")
	}

	p.Next()
	p.Skip()
	p.Next()
	if got := p.State().Position; got != 2 {
		t.Fatalf("expected to stop at last index, got %d", got)
	}
	if h.clicks != 2 {
		t.Fatalf("expected two clicks, got %d", h.clicks)
	}

	p.Back()
	if got := p.State().Position; got != 1 {
		t.Fatalf("expected position 1, got %d", got)
	}
}

func TestNavigationRejectedWhileSpeaking(t *testing.T) {
	p := New(newFakeSynth(), testCatalog(t), nil)
	p.load(rosary.Joyful, threeSteps())
	p.Next()
	p.SpeakCurrent(manualPrefs())

	p.Next()
	p.Back()
	if got := p.State().Position; got != 1 {
		t.Fatalf("navigation while speaking moved to %d", got)
	}
}

func TestStaleCompletionIsIgnored(t *testing.T) {
	synth := newFakeSynth()
	p := New(synth, testCatalog(t), nil)
	p.load(rosary.Joyful, threeSteps())
	p.SpeakCurrent(DefaultPreferences())

	before := p.State()
	p.OnSpeechCompleted(before.Token + 42)
	if after := p.State(); after != before {
		t.Fatalf("stale token changed state: %+v", after)
	}
}

func TestAutoAdvanceChainsThroughScript(t *testing.T) {
	synth := newFakeSynth()
	h := &countingHaptics{}
	p := New(synth, testCatalog(t), h)
	p.load(rosary.Joyful, threeSteps())

	var kinds []EventKind
	p.OnChange(func(ev Event) { kinds = append(kinds, ev.Kind) })

	p.SpeakCurrent(DefaultPreferences())
	first := p.State().Token

	synth.complete(t, first)
	state := p.State()
	if state.Position != 1 || !state.Speaking() {
		t.Fatalf("expected chained narration of step 1, got %+v", state)
	}
	if synth.lastRequest().Text != "Hail Mary" {
		t.Fatalf("unexpected text %q", synth.lastRequest().Text)
	}

	synth.complete(t, state.Token)
	state = p.State()
	if state.Position != 2 || !state.Speaking() {
		t.Fatalf("expected chained narration of step 2, got %+v", state)
	}

	synth.complete(t, state.Token)
	state = p.State()
	if state.Position != 2 || state.Speaking() {
		t.Fatalf("expected idle at last index, got %+v", state)
	}
	if synth.requestCount() != 3 {
		t.Fatalf("expected three requests, got %d", synth.requestCount())
	}
	if h.clicks != 2 || h.successes != 1 {
		t.Fatalf("unexpected haptics: %+v", h)
	}
	if last := kinds[len(kinds)-1]; last != EventFinished {
		t.Fatalf("expected final event %s, got %s", EventFinished, last)
	}
}

func TestAutoAdvanceDisabledStaysPut(t *testing.T) {
	synth := newFakeSynth()
	h := &countingHaptics{}
	p := New(synth, testCatalog(t), h)
	p.load(rosary.Joyful, threeSteps())

	p.SpeakCurrent(manualPrefs())
	synth.complete(t, p.State().Token)

	state := p.State()
	if state.Position != 0 || state.Speaking() {
		t.Fatalf("expected idle at position 0, got %+v", state)
	}
	if synth.requestCount() != 1 || h.clicks != 0 || h.successes != 0 {
		t.Fatalf("unexpected side effects: requests %d haptics %+v", synth.requestCount(), h)
	}
}

func TestHapticsDisabled(t *testing.T) {
	synth := newFakeSynth()
	h := &countingHaptics{}
	p := New(synth, testCatalog(t), h)
	p.load(rosary.Joyful, threeSteps())

	prefs := DefaultPreferences()
	prefs.Haptics = false
	p.SpeakCurrent(prefs)
	for p.State().Speaking() {
		synth.complete(t, p.State().Token)
	}
	if h.clicks != 0 || h.successes != 0 {
		t.Fatalf("expected no haptics, got %+v", h)
	}
}

func TestAutoAdvanceToggledMidChain(t *testing.T) {
	synth := newFakeSynth()
	p := New(synth, testCatalog(t), nil)
	p.load(rosary.Joyful, threeSteps())

	p.SpeakCurrent(DefaultPreferences())
	p.SetPreferences(manualPrefs())
	synth.complete(t, p.State().Token)

	if state := p.State(); state.Position != 0 || state.Speaking() {
		t.Fatalf("expected chain to stop, got %+v", state)
	}
}

func TestMissingPrayerIsSpokenAsPlaceholder(t *testing.T) {
	synth := newFakeSynth()
	p := New(synth, testCatalog(t), nil)
	p.load(rosary.Joyful, rosary.Script{
		{ID: "a", Title: "Angelus", Content: rosary.PrayerReference("angelus")},
		{ID: "b", Title: "Glory Be", Content: rosary.PrayerReference("glory_be")},
	})

	text := p.CurrentText()
	if !rosary.IsMissing(text) || text != "[Missing prayer: angelus]" {
		t.Fatalf("unexpected text %q", text)
	}

	p.SpeakCurrent(DefaultPreferences())
	if synth.lastRequest().Text != text {
		t.Fatalf("expected placeholder to be narrated, got %q", synth.lastRequest().Text)
	}
	synth.complete(t, p.State().Token)
	if got := p.State().Position; got != 1 {
		t.Fatalf("expected playback to continue past missing prayer, got position %d", got)
	}
}

func TestEmptyTextIsNotSpoken(t *testing.T) {
	synth := newFakeSynth()
	p := New(synth, testCatalog(t), nil)
	p.load(rosary.Joyful, rosary.Script{
		{ID: "a", Title: "Silent", Content: rosary.PrayerReference("silent")},
	})

	p.SpeakCurrent(DefaultPreferences())
	if synth.requestCount() != 0 || p.State().Speaking() {
		t.Fatal("expected empty text to be skipped")
	}
}

func TestResolveCurrentTextIsNotCached(t *testing.T) {
	catalog := testCatalog(t)
	p := New(newFakeSynth(), catalog, nil)
	p.load(rosary.Joyful, threeSteps())

	if got := p.ResolveCurrentText(catalog, "es"); got != "Padre nuestro" {
		t.Fatalf("unexpected es text %q", got)
	}
	if got := p.ResolveCurrentText(catalog, "en"); got != "Our Father" {
		t.Fatalf("unexpected en text %q", got)
	}
	if got := p.ResolveCurrentText(&prayer.Catalog{}, "en"); got != "[Missing prayer: our_father]" {
		t.Fatalf("unexpected text against empty catalog %q", got)
	}
}

func TestStopCancelsAndSuppressesCompletion(t *testing.T) {
	synth := newFakeSynth()
	p := New(synth, testCatalog(t), nil)
	p.load(rosary.Joyful, threeSteps())

	var kinds []EventKind
	p.OnChange(func(ev Event) { kinds = append(kinds, ev.Kind) })

	p.SpeakCurrent(DefaultPreferences())
	token := p.State().Token
	p.Stop()

	state := p.State()
	if state.Speaking() || state.Token != 0 {
		t.Fatalf("expected idle after stop, got %+v", state)
	}
	if synth.cancels != 1 {
		t.Fatalf("expected backend cancel, got %d", synth.cancels)
	}

	// A completion that raced the cancel must not advance playback.
	p.OnSpeechCompleted(token)
	if got := p.State(); got.Position != 0 || got.Speaking() {
		t.Fatalf("late completion changed state: %+v", got)
	}
	if kinds[len(kinds)-1] != EventStopped {
		t.Fatalf("expected stopped event, got %v", kinds)
	}

	p.Stop()
	if synth.cancels != 1 {
		t.Fatal("stop while idle must not cancel")
	}
}

func TestSpeakFailureLeavesEngineIdle(t *testing.T) {
	synth := newFakeSynth()
	synth.failNext = errors.New("no audio device")
	p := New(synth, testCatalog(t), nil)
	p.load(rosary.Joyful, threeSteps())

	p.SpeakCurrent(DefaultPreferences())
	if p.State().Speaking() {
		t.Fatal("expected idle after backend failure")
	}
	p.SpeakCurrent(DefaultPreferences())
	if !p.State().Speaking() {
		t.Fatal("expected retry by the user to succeed")
	}
}

func TestRequestCarriesPreferences(t *testing.T) {
	synth := newFakeSynth()
	p := New(synth, testCatalog(t), nil)
	p.load(rosary.Joyful, threeSteps())

	prefs := Preferences{Language: "es", VoiceLanguage: "es-MX", Voice: "Paulina", Rate: 0.4}
	p.SpeakCurrent(prefs)

	req := synth.lastRequest()
	want := tts.Request{Text: "Padre nuestro", Language: "es-MX", Voice: "Paulina", Rate: 0.4}
	if req != want {
		t.Fatalf("got %+v want %+v", req, want)
	}
}

func TestClearDropsScript(t *testing.T) {
	synth := newFakeSynth()
	p := New(synth, testCatalog(t), nil)
	p.SelectMystery(rosary.Luminous)
	p.SpeakCurrent(DefaultPreferences())
	p.Clear()

	state := p.State()
	if state.Loaded || state.Speaking() || synth.cancels != 1 {
		t.Fatalf("unexpected state after clear: %+v cancels %d", state, synth.cancels)
	}
	if len(p.Script()) != 0 {
		t.Fatal("expected empty script")
	}
}

func TestFullRosaryWithMockSynthesizer(t *testing.T) {
	catalog, err := prayer.Bundled()
	if err != nil {
		t.Fatalf("bundled catalog: %v", err)
	}
	synth := tts.NewMockSynthesizer()
	synth.Scale = 1e-6

	p := New(synth, catalog, nil)
	finished := make(chan State, 1)
	p.OnChange(func(ev Event) {
		if ev.Kind == EventFinished {
			finished <- ev.State
		}
	})

	p.SelectMystery(rosary.Sorrowful)
	p.SpeakCurrent(DefaultPreferences())

	select {
	case state := <-finished:
		if state.Position != rosary.StepCount-1 || state.Speaking() {
			t.Fatalf("unexpected final state: %+v", state)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("rosary did not finish, stuck at %+v", p.State())
	}
}
