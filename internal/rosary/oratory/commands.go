package oratory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"divinity/internal/cli/scheme/colours"
	"divinity/internal/cli/table"
	"divinity/internal/config"
	"divinity/internal/domain/prayer"
	"divinity/internal/domain/rosary"
	"divinity/internal/rosary/tts"
	"divinity/internal/summary"
)

func (o *Oratory) ShowWelcome() {
	m := o.today()
	o.println()
	o.printf(colours.Title, "📿 Welcome to Divinity 📿\n")
	o.printf(colours.Mystery, "Today: the %s Mysteries\n", m.Title())
	o.println()
	o.printf(colours.Info, "📚 Available commands:\n")
	o.println("  • divinity rosary [mystery]   - Pray the rosary step by step")
	o.println("  • divinity --autoplay         - Pray today's rosary hands-free")
	o.println("  • divinity mysteries          - The four mysteries and their days")
	o.println("  • divinity script [mystery]   - Every step of a rosary")
	o.println("  • divinity prayers            - Browse, read and hear prayers")
	o.println("  • divinity settings           - Narration preferences")
	o.println("  • divinity summary            - Today at a glance")
	o.println("  • divinity voices             - Voices of the speech engine")
	o.println("  • divinity cache              - Cached narration audio")
}

// weekdays lists, per mystery, the days it is prayed on.
func weekdays() map[rosary.Mystery][]string {
	days := make(map[rosary.Mystery][]string)
	// 2026-10-12 is a Monday
	monday := time.Date(2026, time.October, 12, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i)
		m := rosary.ForDate(d)
		days[m] = append(days[m], d.Weekday().String())
	}
	return days
}

func (o *Oratory) ListMysteries() {
	today := o.today()
	days := weekdays()

	var rows [][]string
	for _, m := range rosary.Mysteries() {
		title := m.Title()
		if m == today {
			title += " ★"
		}
		rows = append(rows, []string{
			m.ID(),
			title,
			strings.Join(days[m], ", "),
			strings.Join(m.Meditations(), "; "),
		})
	}

	o.println()
	o.printf(colours.Title, "📿 The Mysteries of the Rosary\n")
	o.println(table.Render(
		[]string{"ID", "Mystery", "Prayed on", "Meditations"},
		rows,
		[]table.Alignment{table.AlignLeft, table.AlignLeft, table.AlignLeft, table.AlignLeft},
	))
	o.printf(colours.Muted, "★ today's mystery\n")
}

func (o *Oratory) ShowScript(args []string) error {
	m := o.today()
	if len(args) > 0 {
		parsed, err := rosary.ParseMystery(args[0])
		if err != nil {
			return err
		}
		m = parsed
	}

	script := rosary.Generate(m)
	rows := make([][]string, 0, len(script))
	for i, step := range script {
		rows = append(rows, []string{strconv.Itoa(i + 1), step.Title, rosary.Describe(step.Content)})
	}

	o.println()
	o.printf(colours.Mystery, "📿 The %s Mysteries, %d steps\n", m.Title(), len(script))
	o.println(table.Render(
		[]string{"#", "Step", "Content"},
		rows,
		[]table.Alignment{table.AlignRight, table.AlignLeft, table.AlignLeft},
	))
	return nil
}

func (o *Oratory) ListPrayers() {
	prayers := o.Catalog.All()
	if len(prayers) == 0 {
		o.printf(colours.Warning, "🔍 No prayers in the catalog.\n")
		return
	}

	rows := make([][]string, 0, len(prayers))
	for _, p := range prayers {
		langs := make([]string, 0, len(p.Translations))
		for lang := range p.Translations {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		rows = append(rows, []string{p.ID, p.Title, strings.Join(langs, ", ")})
	}

	o.println()
	o.printf(colours.Title, "🙏 Prayers\n")
	o.println(table.Render([]string{"ID", "Title", "Languages"}, rows, nil))
	o.printf(colours.Success, "✨ %d prayers in %s\n", len(prayers), strings.Join(o.Catalog.Languages(), ", "))
}

// prayerLanguage resolves the --lang flag, defaulting to the narration language.
func (o *Oratory) prayerLanguage(lang string) string {
	if lang == "" {
		return o.Settings.PrayerLanguage()
	}
	return config.BaseLanguage(lang)
}

func (o *Oratory) lookup(id string) (prayer.Prayer, error) {
	p, err := o.Catalog.Get(id)
	if errors.Is(err, prayer.ErrNotFound) {
		return p, fmt.Errorf("%w, see 'divinity prayers list'", err)
	}
	return p, err
}

func (o *Oratory) ShowPrayer(id, lang string) error {
	p, err := o.lookup(id)
	if err != nil {
		return err
	}
	text, _ := p.Text(o.prayerLanguage(lang))

	o.println()
	o.printf(colours.Title, "🙏 %s\n", p.Title)
	o.printf(colours.Prayer, "%s\n", text)
	return nil
}

// voiceLanguageFor picks a narration tag for prayer text in lang. The
// configured voice is kept when it already speaks that language.
func (o *Oratory) voiceLanguageFor(lang string) string {
	if config.BaseLanguage(o.Settings.VoiceLanguage) == lang {
		return o.Settings.VoiceLanguage
	}
	switch lang {
	case "es":
		return "es-MX"
	case "en":
		return "en-US"
	}
	return o.Settings.VoiceLanguage
}

// SpeakPrayer narrates one prayer outside the rosary and waits for it.
func (o *Oratory) SpeakPrayer(ctx context.Context, id, lang string) error {
	p, err := o.lookup(id)
	if err != nil {
		return err
	}
	lang = o.prayerLanguage(lang)
	text, ok := p.Text(lang)
	if !ok || text == "" {
		return fmt.Errorf("prayer %s has no text", id)
	}

	voiceLanguage := o.voiceLanguageFor(lang)
	voice := o.Settings.Voice
	if voiceLanguage != o.Settings.VoiceLanguage {
		voice = "default"
	}

	finished := make(chan struct{})
	_, err = o.Synth.Speak(tts.Request{
		Text:     text,
		Language: voiceLanguage,
		Voice:    voice,
		Rate:     o.Settings.SpeechRate,
	}, func(tts.Token) { close(finished) })
	if err != nil {
		return fmt.Errorf("failed to speak %s: %w", id, err)
	}

	o.printf(colours.Title, "🙏 %s\n", p.Title)
	o.printf(colours.Prayer, "%s\n", text)

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return o.Synth.Cancel()
	}
}

func (o *Oratory) ShowSettings() {
	rows := make([][]string, 0, len(config.Keys()))
	for _, key := range config.Keys() {
		rows = append(rows, []string{key, fmt.Sprint(viper.Get(key))})
	}

	o.println()
	o.printf(colours.Title, "⚙️ Settings\n")
	o.println(table.Render([]string{"Key", "Value"}, rows, nil))
	if used := viper.ConfigFileUsed(); used != "" {
		o.printf(colours.Muted, "from %s\n", used)
	}
	o.printf(colours.Info, "💡 Voice languages: %s\n", strings.Join(config.VoiceLanguages, ", "))
	o.printf(colours.Info, "💡 Speech rate: %.2f to %.2f\n", config.MinSpeechRate, config.MaxSpeechRate)

	engines := make([]string, 0, 4)
	for _, e := range tts.GetAvailableEngines() {
		engines = append(engines, e.String())
	}
	o.printf(colours.Info, "💡 Engines here: auto, %s (active: %s)\n", strings.Join(engines, ", "), o.Synth.Name())
}

func (o *Oratory) SetSetting(key, value string) error {
	if err := config.Set(key, value); err != nil {
		return err
	}
	o.Settings = config.Load()
	o.Player.SetPreferences(o.preferences())
	o.printf(colours.Success, "✅ %s = %v\n", key, viper.Get(key))
	return nil
}

func (o *Oratory) ShowSummary() {
	entries, next := summary.Timeline(o.now())
	for _, e := range entries {
		o.printf(colours.Muted, "%s\n", e.Title)
		o.printf(colours.Title, "%s\n", e.Subtitle)
	}
	o.printf(colours.Muted, "refresh after %s\n", next.Format("15:04"))
}

func (o *Oratory) ListVoices() error {
	voices, err := o.Synth.Voices()
	if err != nil {
		return fmt.Errorf("failed to list voices: %w", err)
	}
	o.printf(colours.Title, "🎤 %s voices\n", o.Synth.Name())
	if len(voices) == 0 {
		o.printf(colours.Warning, "No voices reported.\n")
		return nil
	}
	for _, v := range voices {
		o.println("  •", v)
	}
	return nil
}

func (o *Oratory) audioCache() *tts.AudioCache {
	return tts.NewAudioCache(o.Settings.CacheDir, o.Settings.CacheMaxAge)
}

func (o *Oratory) ShowCacheStatus() error {
	info, err := o.audioCache().Info()
	if err != nil {
		return fmt.Errorf("failed to get cache info: %w", err)
	}

	o.printf(colours.Title, "📊 Audio cache\n")
	o.printf(colours.Info, "📁 Location: %s\n", info.Dir)
	if !info.Exists || info.Files == 0 {
		o.printf(colours.Warning, "Cache is empty\n")
		o.printf(colours.Muted, "💡 Audio is cached when the Google engine speaks.\n")
		return nil
	}
	o.printf(colours.Info, "🎵 Files: %d (%d stale)\n", info.Files, info.Stale)
	o.printf(colours.Info, "📏 Size: %d bytes\n", info.Size)
	o.printf(colours.Info, "🕐 Last used: %s\n", info.LastModified.Format("2006-01-02 15:04:05"))
	o.printf(colours.Info, "⏳ Max age: %.0f hours\n", info.MaxAge.Hours())
	return nil
}

func (o *Oratory) PruneCache() error {
	removed, err := o.audioCache().Prune()
	if err != nil {
		return err
	}
	o.printf(colours.Success, "✅ Removed %d stale audio files\n", removed)
	return nil
}

func (o *Oratory) ClearCache() error {
	cache := o.audioCache()
	if err := cache.Clear(); err != nil {
		return err
	}
	o.printf(colours.Success, "✅ Cleared %s\n", cache.Dir())
	return nil
}
