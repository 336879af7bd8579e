package tts

import (
	"strings"

	"golang.org/x/text/language"
)

// canonicalTag parses a BCP 47 tag, defaulting to American English.
func canonicalTag(s string) language.Tag {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	if err != nil || tag == language.Und {
		return language.AmericanEnglish
	}
	return tag
}

func explicitVoice(voice string) bool {
	v := strings.TrimSpace(voice)
	return v != "" && !strings.EqualFold(v, "default")
}

// System voices used when the user has not picked one.
var sayVoices = map[string]string{
	"en-US": "Samantha",
	"en-GB": "Daniel",
	"es-ES": "Monica",
	"es-MX": "Paulina",
}

func sayVoiceFor(tag language.Tag) string {
	if v, ok := sayVoices[tag.String()]; ok {
		return v
	}
	base, _ := tag.Base()
	if base.String() == "es" {
		return sayVoices["es-ES"]
	}
	return sayVoices["en-US"]
}
