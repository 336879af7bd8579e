package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// Preference keys
const (
	KeyAutoAdvance   = "rosary.auto_advance"
	KeyHaptics       = "rosary.haptics"
	KeyVoiceLanguage = "speech.voice_language"
	KeySpeechRate    = "speech.rate"
	KeyEngine        = "speech.engine"
	KeyVoice         = "speech.voice"
	KeyCacheDir      = "speech.cache_dir"
	KeyCacheMaxAge   = "speech.cache_max_age"
	KeyCatalogPath   = "catalog.path"
	KeyLogLevel      = "log.level"
)

const (
	DefaultVoiceLanguage = "en-US"
	DefaultSpeechRate    = 0.45
	MinSpeechRate        = 0.35
	MaxSpeechRate        = 0.60
	DefaultCacheMaxAge   = 30 * 24 * time.Hour
)

var (
	ErrUnknownKey   = errors.New("unknown setting")
	ErrInvalidValue = errors.New("invalid setting value")
)

// VoiceLanguages are the narration languages offered to the user.
var VoiceLanguages = []string{"en-US", "en-GB", "es-ES", "es-MX"}

var supportedVoices = func() []language.Tag {
	tags := make([]language.Tag, 0, len(VoiceLanguages))
	for _, v := range VoiceLanguages {
		tags = append(tags, language.MustParse(v))
	}
	return tags
}()

var voiceMatcher = language.NewMatcher(supportedVoices)

// Settings is a typed snapshot of the persisted preferences.
type Settings struct {
	AutoAdvance   bool
	Haptics       bool
	VoiceLanguage string
	SpeechRate    float64
	Engine        string
	Voice         string
	CacheDir      string
	CacheMaxAge   time.Duration
	CatalogPath   string
	LogLevel      string
}

// PrayerLanguage is the catalog language derived from the voice, e.g. en-GB -> en.
func (s Settings) PrayerLanguage() string {
	return BaseLanguage(s.VoiceLanguage)
}

func SetDefaults() {
	viper.SetDefault(KeyAutoAdvance, true)
	viper.SetDefault(KeyHaptics, true)
	viper.SetDefault(KeyVoiceLanguage, DefaultVoiceLanguage)
	viper.SetDefault(KeySpeechRate, DefaultSpeechRate)
	viper.SetDefault(KeyEngine, "auto") // Auto-select best engine
	viper.SetDefault(KeyVoice, "default")
	viper.SetDefault(KeyCacheDir, defaultCacheDir())
	viper.SetDefault(KeyCacheMaxAge, DefaultCacheMaxAge.String())
	viper.SetDefault(KeyCatalogPath, "")
	viper.SetDefault(KeyLogLevel, "warn")
}

// Init wires viper to the preferences file and environment. A missing file
// is not an error. cfgFile overrides the search path when non-empty.
func Init(cfgFile string) error {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("Failed to read .env")
	}

	SetDefaults()

	viper.SetEnvPrefix("DIVINITY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("divinity")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("$HOME/.divinity")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	logrus.WithField("file", viper.ConfigFileUsed()).Debug("Loaded preferences")
	return nil
}

// Load reads the current preferences, repairing out-of-range values.
func Load() Settings {
	s := Settings{
		AutoAdvance:   viper.GetBool(KeyAutoAdvance),
		Haptics:       viper.GetBool(KeyHaptics),
		VoiceLanguage: viper.GetString(KeyVoiceLanguage),
		SpeechRate:    viper.GetFloat64(KeySpeechRate),
		Engine:        viper.GetString(KeyEngine),
		Voice:         viper.GetString(KeyVoice),
		CacheDir:      viper.GetString(KeyCacheDir),
		CacheMaxAge:   viper.GetDuration(KeyCacheMaxAge),
		CatalogPath:   viper.GetString(KeyCatalogPath),
		LogLevel:      viper.GetString(KeyLogLevel),
	}

	if tag, err := NormalizeVoiceLanguage(s.VoiceLanguage); err != nil {
		logrus.WithField("voice_language", s.VoiceLanguage).Warn("Unsupported voice language, using default")
		s.VoiceLanguage = DefaultVoiceLanguage
	} else {
		s.VoiceLanguage = tag
	}

	if s.CacheMaxAge <= 0 {
		s.CacheMaxAge = DefaultCacheMaxAge
	}

	if clamped := ClampRate(s.SpeechRate); clamped != s.SpeechRate {
		logrus.WithFields(logrus.Fields{
			"rate":    s.SpeechRate,
			"clamped": clamped,
		}).Warn("Speech rate out of range")
		s.SpeechRate = clamped
	}
	return s
}

// ClampRate bounds a speech rate to the supported range.
func ClampRate(rate float64) float64 {
	if rate < MinSpeechRate {
		return MinSpeechRate
	}
	if rate > MaxSpeechRate {
		return MaxSpeechRate
	}
	return rate
}

// NormalizeVoiceLanguage maps a tag onto one of VoiceLanguages. Tags sharing
// a base language with a supported voice match it, so es-AR finds a Spanish voice.
func NormalizeVoiceLanguage(s string) (string, error) {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a language tag", ErrInvalidValue, s)
	}
	_, index, confidence := voiceMatcher.Match(tag)
	if confidence < language.High {
		return "", fmt.Errorf("%w: no voice for %q", ErrInvalidValue, s)
	}
	return VoiceLanguages[index], nil
}

// BaseLanguage returns the ISO 639-1 part of a tag, defaulting to en.
func BaseLanguage(tag string) string {
	t, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
	if err != nil {
		return "en"
	}
	base, confidence := t.Base()
	if confidence == language.No {
		return "en"
	}
	return base.String()
}

// Set validates and persists a single preference.
func Set(key, value string) error {
	var parsed any
	switch key {
	case KeyAutoAdvance, KeyHaptics:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects true or false", ErrInvalidValue, key)
		}
		parsed = b
	case KeySpeechRate:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < MinSpeechRate || f > MaxSpeechRate {
			return fmt.Errorf("%w: %s must be between %.2f and %.2f", ErrInvalidValue, key, MinSpeechRate, MaxSpeechRate)
		}
		parsed = f
	case KeyVoiceLanguage:
		tag, err := NormalizeVoiceLanguage(value)
		if err != nil {
			return err
		}
		parsed = tag
	case KeyCacheMaxAge:
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s expects a positive duration such as 720h", ErrInvalidValue, key)
		}
		parsed = d.String()
	case KeyEngine, KeyVoice, KeyCacheDir, KeyCatalogPath, KeyLogLevel:
		parsed = strings.TrimSpace(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	viper.Set(key, parsed)
	return write()
}

// Keys lists every preference key in display order.
func Keys() []string {
	return []string{
		KeyAutoAdvance, KeyHaptics, KeyVoiceLanguage, KeySpeechRate,
		KeyEngine, KeyVoice, KeyCacheDir, KeyCacheMaxAge, KeyCatalogPath, KeyLogLevel,
	}
}

func write() error {
	path := viper.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to locate home directory: %w", err)
		}
		path = filepath.Join(home, ".divinity", "divinity.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	viper.SetConfigFile(path)
	return nil
}

// defaultCacheDir returns the appropriate cache directory
func defaultCacheDir() string {
	if cacheDir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cacheDir, "divinity", "audio")
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".divinity", "cache", "audio")
	}
	return filepath.Join("cache", "audio")
}
