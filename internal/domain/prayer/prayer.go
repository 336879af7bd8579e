package prayer

// FallbackLanguage is the translation every shipped prayer is expected to carry.
const FallbackLanguage = "en"

// Prayer is a single entry of the prayer catalog
type Prayer struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Translations map[string]string `json:"translations"`
}

// Text returns the translation for lang, falling back to English.
// The second value reports whether any text was found.
func (p Prayer) Text(lang string) (string, bool) {
	if text, ok := p.Translations[lang]; ok {
		return text, true
	}
	if text, ok := p.Translations[FallbackLanguage]; ok {
		return text, true
	}
	return "", false
}

// document is the on-disk shape of the catalog
type document struct {
	Prayers []Prayer `json:"prayers"`
}
