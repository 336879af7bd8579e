package tts

import (
	"fmt"
	"os/exec"
	"strings"
)

func newSaySynthesizer() *CommandSynthesizer {
	return &CommandSynthesizer{
		name: EngineTypeSay.String(),
		build: func(req Request) (commandSpec, error) {
			return commandSpec{path: "say", args: sayArgs(req)}, nil
		},
		voices: func() ([]string, error) {
			output, err := exec.Command("say", "-v", "?").Output()
			if err != nil {
				return nil, fmt.Errorf("failed to list say voices: %w", err)
			}
			return parseSayVoices(string(output)), nil
		},
	}
}

func sayArgs(req Request) []string {
	voice := sayVoiceFor(canonicalTag(req.Language))
	if explicitVoice(req.Voice) {
		voice = req.Voice
	}

	// say's rate is words per minute, ~175 normal
	rate := fmt.Sprintf("%.0f", espeakWordsPerMinute*Multiplier(req.Rate))
	return []string{"-v", voice, "-r", rate, "-f", "-"}
}

// parseSayVoices reads `say -v ?` lines of the form
// "Daniel              en_GB    # Hello! My name is Daniel."
func parseSayVoices(output string) []string {
	voices := make([]string, 0)
	for _, line := range strings.Split(output, "\n") {
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		voices = append(voices, strings.Join(fields[:len(fields)-1], " "))
	}
	return voices
}
