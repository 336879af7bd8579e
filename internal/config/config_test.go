package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"divinity/internal/config"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	if err := config.Init(""); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	s := config.Load()

	if !s.AutoAdvance || !s.Haptics {
		t.Fatalf("expected auto-advance and haptics on by default: %+v", s)
	}
	if s.VoiceLanguage != "en-US" {
		t.Fatalf("unexpected voice language %q", s.VoiceLanguage)
	}
	if s.SpeechRate != 0.45 {
		t.Fatalf("unexpected rate %v", s.SpeechRate)
	}
	if s.Engine != "auto" || s.Voice != "default" {
		t.Fatalf("unexpected speech defaults: %+v", s)
	}
	if s.CacheMaxAge != config.DefaultCacheMaxAge {
		t.Fatalf("unexpected cache max age %s", s.CacheMaxAge)
	}
	if s.CatalogPath != "" {
		t.Fatalf("expected bundled catalog by default, got %q", s.CatalogPath)
	}
	if s.PrayerLanguage() != "en" {
		t.Fatalf("unexpected prayer language %q", s.PrayerLanguage())
	}
}

func TestLoadReadsFileAndRepairsValues(t *testing.T) {
	resetViper(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "divinity.yaml")
	doc := strings.Join([]string{
		"rosary:",
		"  auto_advance: false",
		"speech:",
		"  voice_language: fr-FR",
		"  rate: 0.9",
	}, "\n")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := config.Init(path); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	s := config.Load()
	if s.AutoAdvance {
		t.Fatal("expected auto-advance from file")
	}
	if s.VoiceLanguage != config.DefaultVoiceLanguage {
		t.Fatalf("expected unsupported language to fall back, got %q", s.VoiceLanguage)
	}
	if s.SpeechRate != config.MaxSpeechRate {
		t.Fatalf("expected rate clamped to max, got %v", s.SpeechRate)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	resetViper(t)
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())
	t.Setenv("DIVINITY_SPEECH_VOICE_LANGUAGE", "es-MX")
	t.Setenv("DIVINITY_ROSARY_HAPTICS", "false")

	if err := config.Init(""); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	s := config.Load()
	if s.VoiceLanguage != "es-MX" || s.PrayerLanguage() != "es" {
		t.Fatalf("unexpected language: %q / %q", s.VoiceLanguage, s.PrayerLanguage())
	}
	if s.Haptics {
		t.Fatal("expected haptics disabled from env")
	}
}

func TestSetPersistsPreference(t *testing.T) {
	resetViper(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, t.TempDir())

	if err := config.Init(""); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if err := config.Set(config.KeySpeechRate, "0.5"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := config.Set(config.KeyVoiceLanguage, "en_GB"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := config.Set(config.KeyCacheMaxAge, "48h"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	written := filepath.Join(home, ".divinity", "divinity.yaml")
	if _, err := os.Stat(written); err != nil {
		t.Fatalf("expected config written to %s: %v", written, err)
	}

	viper.Reset()
	if err := config.Init(""); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	s := config.Load()
	if s.SpeechRate != 0.5 || s.VoiceLanguage != "en-GB" || s.CacheMaxAge != 48*time.Hour {
		t.Fatalf("preferences not persisted: %+v", s)
	}
}

func TestSetRejectsInvalidValues(t *testing.T) {
	resetViper(t)
	tests := []struct {
		key   string
		value string
		want  error
	}{
		{"speech.pitch", "1", config.ErrUnknownKey},
		{config.KeyAutoAdvance, "maybe", config.ErrInvalidValue},
		{config.KeySpeechRate, "2", config.ErrInvalidValue},
		{config.KeySpeechRate, "fast", config.ErrInvalidValue},
		{config.KeyVoiceLanguage, "fr-FR", config.ErrInvalidValue},
		{config.KeyCacheMaxAge, "soon", config.ErrInvalidValue},
		{config.KeyCacheMaxAge, "-1h", config.ErrInvalidValue},
	}
	for _, tt := range tests {
		if err := config.Set(tt.key, tt.value); !errors.Is(err, tt.want) {
			t.Fatalf("Set(%q, %q) = %v, want %v", tt.key, tt.value, err, tt.want)
		}
	}
}

func TestNormalizeVoiceLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en-US", "en-US"},
		{"en_GB", "en-GB"},
		{"es-mx", "es-MX"},
		{"es-ES", "es-ES"},
	}
	for _, tt := range tests {
		got, err := config.NormalizeVoiceLanguage(tt.in)
		if err != nil || got != tt.want {
			t.Fatalf("NormalizeVoiceLanguage(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := config.NormalizeVoiceLanguage("not a tag"); err == nil {
		t.Fatal("expected error for malformed tag")
	}
}

func TestClampRateAndBaseLanguage(t *testing.T) {
	if config.ClampRate(0.1) != config.MinSpeechRate || config.ClampRate(0.5) != 0.5 {
		t.Fatal("unexpected clamp")
	}
	if config.BaseLanguage("es-ES") != "es" || config.BaseLanguage("") != "en" {
		t.Fatal("unexpected base language")
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore cwd %s: %v", prev, err)
		}
	})
}
