package oratory

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"divinity/internal/cli/scheme/colours"
	"divinity/internal/config"
	"divinity/internal/domain/prayer"
	"divinity/internal/domain/rosary"
	"divinity/internal/rosary/player"
	"divinity/internal/rosary/tts"
)

// Oratory is the terminal application around the playback engine.
type Oratory struct {
	Settings config.Settings
	Catalog  *prayer.Catalog
	Synth    tts.Synthesizer
	Player   *player.Player

	in  io.Reader
	out io.Writer
	now func() time.Time

	// guards out; listeners print from the synthesizer's goroutine
	printMu sync.Mutex
}

// Option customises an Oratory at construction.
type Option func(*Oratory)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(o *Oratory) {
		o.in = in
		o.out = out
	}
}

// WithSynthesizer bypasses engine selection from settings.
func WithSynthesizer(s tts.Synthesizer) Option {
	return func(o *Oratory) {
		o.Synth = s
	}
}

// WithClock fixes the time used to pick the day's mystery.
func WithClock(now func() time.Time) Option {
	return func(o *Oratory) {
		o.now = now
	}
}

func NewOratory(settings config.Settings, opts ...Option) *Oratory {
	o := &Oratory{
		Settings: settings,
		in:       os.Stdin,
		out:      os.Stdout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.Catalog = o.loadCatalog()

	if o.Synth == nil {
		o.Synth = newSynthesizer(settings)
	}

	var haptics player.Haptics
	if colours.IsTerminal(o.out) {
		haptics = &bell{w: o.out, mu: &o.printMu}
	}
	o.Player = player.New(o.Synth, o.Catalog, haptics)
	o.Player.SetPreferences(o.preferences())
	o.Player.OnChange(o.render)
	return o
}

// loadCatalog reports a broken catalog once and carries on with an empty one.
func (o *Oratory) loadCatalog() *prayer.Catalog {
	var (
		catalog *prayer.Catalog
		err     error
	)
	if o.Settings.CatalogPath != "" {
		catalog, err = prayer.LoadFile(o.Settings.CatalogPath)
	} else {
		catalog, err = prayer.Bundled()
	}
	if err != nil {
		logrus.WithError(err).WithField("path", o.Settings.CatalogPath).Warn("Failed to load prayer catalog")
		colours.Error.Fprintf(o.out, "❌ Could not load prayers: %v\n", err)
		colours.Info.Fprintln(o.out, "💡 Prayers will show as missing until the catalog is fixed.")
		return &prayer.Catalog{}
	}
	return catalog
}

func newSynthesizer(settings config.Settings) tts.Synthesizer {
	synth, err := tts.NewSynthesizer(tts.Config{
		Type:     settings.Engine,
		Voice:    settings.Voice,
		CacheDir: settings.CacheDir,
	})
	if err != nil {
		logrus.WithError(err).WithField("engine", settings.Engine).Warn("Speech engine unavailable, narration will be simulated")
		return tts.NewMockSynthesizer()
	}
	logrus.WithField("engine", synth.Name()).Debug("Speech engine ready")
	return synth
}

func (o *Oratory) preferences() player.Preferences {
	return player.Preferences{
		AutoAdvance:   o.Settings.AutoAdvance,
		Haptics:       o.Settings.Haptics,
		Language:      o.Settings.PrayerLanguage(),
		VoiceLanguage: o.Settings.VoiceLanguage,
		Voice:         o.Settings.Voice,
		Rate:          o.Settings.SpeechRate,
	}
}

// Close stops narration and releases backend resources.
func (o *Oratory) Close() {
	o.Player.Stop()
	if c, ok := o.Synth.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close speech engine")
		}
	}
}

func (o *Oratory) today() rosary.Mystery {
	return rosary.ForDate(o.now())
}

// painter is satisfied by the colours palette.
type painter interface {
	Fprintf(w io.Writer, format string, a ...interface{}) (int, error)
}

func (o *Oratory) printf(c painter, format string, args ...interface{}) {
	o.printMu.Lock()
	defer o.printMu.Unlock()
	c.Fprintf(o.out, format, args...)
}

func (o *Oratory) println(args ...interface{}) {
	o.printMu.Lock()
	defer o.printMu.Unlock()
	fmt.Fprintln(o.out, args...)
}

// bell rings the terminal for step changes and the end of the rosary.
type bell struct {
	w  io.Writer
	mu *sync.Mutex
}

func (b *bell) Click() {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprint(b.w, "\a")
}

func (b *bell) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprint(b.w, "\a\a")
}
