// Package core defines the shared interfaces and value types of the speech
// delivery pipeline.
package core

import "context"

// VoiceParams holds the language-specific voice configuration passed to the
// remote synthesis call.
type VoiceParams struct {
	LanguageCode string
	VoiceName    string
	Gender       string
	SpeakingRate float64
	Pitch        float64
	VolumeGainDB float64
}

// Synthesizer defines the interface for the remote text-to-speech call.
// Implementations return the raw encoded audio bytes for the given text.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice VoiceParams) ([]byte, error)
}

// ObjectStore defines the interface for handing delivered audio to the
// transport layer through a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// ChatModel defines the interface for the wrapped generative chat call used
// by the conversation layer.
type ChatModel interface {
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
}
