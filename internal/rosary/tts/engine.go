package tts

import (
	"fmt"
	"os"
	"runtime"
)

type EngineType string

const (
	EngineTypeMock          EngineType = "mock"
	EngineTypeESpeak        EngineType = "espeak"
	EngineTypeSAPI          EngineType = "sapi" // Windows only
	EngineTypeSay           EngineType = "say"  // macOS only
	EngineTypeGoogleClassic EngineType = "googleclassic"
	EngineTypeAuto          EngineType = "auto" // Automatically choose best for platform
)

func (e EngineType) String() string {
	return string(e)
}

// NewSynthesizer creates a speech backend based on the provided config
func NewSynthesizer(config Config) (Synthesizer, error) {
	if config.Type == "" || config.Type == EngineTypeAuto.String() {
		config.Type = getBestEngineForPlatform().String()
	}

	switch config.Type {
	case EngineTypeMock.String():
		return NewMockSynthesizer(), nil

	case EngineTypeGoogleClassic.String():
		return newGoogleSynthesizer(config)

	case EngineTypeESpeak.String():
		return newESpeakSynthesizer()

	case EngineTypeSAPI.String():
		if runtime.GOOS != "windows" {
			return nil, fmt.Errorf("%w: SAPI engine only supports Windows", ErrUnsupported)
		}
		return newSAPISynthesizer(), nil

	case EngineTypeSay.String():
		if runtime.GOOS != "darwin" {
			return nil, fmt.Errorf("%w: say engine only supports macOS", ErrUnsupported)
		}
		return newSaySynthesizer(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, config.Type)
	}
}

// getBestEngineForPlatform returns the recommended engine for the current platform
func getBestEngineForPlatform() EngineType {
	if hasGoogleCredentials() {
		return EngineTypeGoogleClassic
	}

	switch runtime.GOOS {
	case "windows":
		return EngineTypeSAPI
	case "darwin":
		return EngineTypeSay
	default:
		return EngineTypeESpeak
	}
}

// GetAvailableEngines returns engines available on the current platform
func GetAvailableEngines() []EngineType {
	engines := []EngineType{EngineTypeMock, EngineTypeESpeak}

	if hasGoogleCredentials() {
		engines = append(engines, EngineTypeGoogleClassic)
	}

	switch runtime.GOOS {
	case "windows":
		engines = append(engines, EngineTypeSAPI)
	case "darwin":
		engines = append(engines, EngineTypeSay)
	}

	return engines
}

// hasGoogleCredentials checks if Google Cloud credentials are available
func hasGoogleCredentials() bool {
	_, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS")
	return ok
}
