// Cross-platform eSpeak implementation
package tts

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// espeak's default speed in words per minute
const espeakWordsPerMinute = 175

func newESpeakSynthesizer() (*CommandSynthesizer, error) {
	espeakPath, err := findESpeakExecutable()
	if err != nil {
		return nil, fmt.Errorf("eSpeak not found: %w", err)
	}

	if err := exec.Command(espeakPath, "--version").Run(); err != nil {
		return nil, fmt.Errorf("eSpeak test failed: %w", err)
	}

	return &CommandSynthesizer{
		name: EngineTypeESpeak.String(),
		build: func(req Request) (commandSpec, error) {
			return commandSpec{path: espeakPath, args: espeakArgs(req)}, nil
		},
		voices: func() ([]string, error) {
			output, err := exec.Command(espeakPath, "--voices").Output()
			if err != nil {
				return nil, fmt.Errorf("failed to list eSpeak voices: %w", err)
			}
			return parseESpeakVoices(string(output)), nil
		},
	}, nil
}

func findESpeakExecutable() (string, error) {
	candidates := []string{"espeak-ng", "espeak"}

	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("eSpeak executable not found in PATH")
}

func espeakArgs(req Request) []string {
	voice := strings.ToLower(canonicalTag(req.Language).String())
	if explicitVoice(req.Voice) {
		voice = req.Voice
	}

	speed := int(espeakWordsPerMinute * Multiplier(req.Rate))
	return []string{"-v", voice, "-s", strconv.Itoa(speed), "--stdin"}
}

func parseESpeakVoices(output string) []string {
	lines := strings.Split(output, "\n")
	voices := make([]string, 0)

	for i, line := range lines {
		// Skip header line
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}

		// Pty Language Age/Gender VoiceName File Other Languages
		fields := strings.Fields(line)
		if len(fields) >= 4 {
			voices = append(voices, fields[3])
		}
	}

	return voices
}
