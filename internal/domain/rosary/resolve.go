package rosary

import (
	"fmt"
	"strings"

	"divinity/internal/domain/prayer"
)

const missingPrefix = "[Missing prayer: "

// Catalog is the lookup the resolver needs from a prayer catalog.
type Catalog interface {
	Lookup(id string) (prayer.Prayer, bool)
}

// MissingPrayerText is the placeholder shown for ids absent from the catalog.
func MissingPrayerText(id string) string {
	return missingPrefix + id + "]"
}

// IsMissing reports whether text is a missing-prayer placeholder.
func IsMissing(text string) bool {
	return strings.HasPrefix(text, missingPrefix) && strings.HasSuffix(text, "]")
}

// Resolve returns the text to display and speak for a step. Literal text is
// returned verbatim; prayer references use lang with an English fallback.
// A nil catalog behaves as an empty one.
func Resolve(step Step, catalog Catalog, lang string) string {
	if !step.Content.IsPrayer() {
		return step.Content.Value
	}
	if catalog == nil {
		return MissingPrayerText(step.Content.Value)
	}
	p, ok := catalog.Lookup(step.Content.Value)
	if !ok {
		return MissingPrayerText(step.Content.Value)
	}
	text, _ := p.Text(lang)
	return text
}

// Describe is a short human label for a step's content.
func Describe(c Content) string {
	if c.IsPrayer() {
		return fmt.Sprintf("prayer %s", c.Value)
	}
	return "meditation"
}
