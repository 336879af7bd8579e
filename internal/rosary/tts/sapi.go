package tts

import (
	"fmt"
	"math"
	"os/exec"
	"strings"
)

func newSAPISynthesizer() *CommandSynthesizer {
	return &CommandSynthesizer{
		name: EngineTypeSAPI.String(),
		build: func(req Request) (commandSpec, error) {
			return commandSpec{
				path: "powershell",
				args: []string{"-NoProfile", "-NonInteractive", "-Command", sapiScript(req)},
			}, nil
		},
		voices: func() ([]string, error) {
			script := `Add-Type -AssemblyName System.Speech; ` +
				`(New-Object System.Speech.Synthesis.SpeechSynthesizer).GetInstalledVoices() | ` +
				`ForEach-Object { $_.VoiceInfo.Name }`
			output, err := exec.Command("powershell", "-NoProfile", "-Command", script).Output()
			if err != nil {
				return nil, fmt.Errorf("failed to list SAPI voices: %w", err)
			}
			voices := make([]string, 0)
			for _, line := range strings.Split(string(output), "\n") {
				if name := strings.TrimSpace(line); name != "" {
					voices = append(voices, name)
				}
			}
			return voices, nil
		},
	}
}

// sapiRate converts to SAPI's -10..10 range where 0 is normal.
func sapiRate(rate float64) int {
	r := int(math.Round((Multiplier(rate) - 1) * 10))
	if r < -10 {
		return -10
	}
	if r > 10 {
		return 10
	}
	return r
}

// sapiScript builds the PowerShell program. The text arrives on stdin so it is
// never interpolated into the script.
func sapiScript(req Request) string {
	selectVoice := fmt.Sprintf(
		"$synth.SelectVoiceByHints('NotSet', 'NotSet', 0, [System.Globalization.CultureInfo]::GetCultureInfo('%s'))",
		canonicalTag(req.Language).String())
	if explicitVoice(req.Voice) {
		selectVoice = fmt.Sprintf("$synth.SelectVoice('%s')", strings.ReplaceAll(req.Voice, "'", "''"))
	}

	return strings.Join([]string{
		"Add-Type -AssemblyName System.Speech",
		"$synth = New-Object System.Speech.Synthesis.SpeechSynthesizer",
		"try { " + selectVoice + " } catch {}",
		fmt.Sprintf("$synth.Rate = %d", sapiRate(req.Rate)),
		"$synth.Speak([Console]::In.ReadToEnd())",
	}, "; ")
}
