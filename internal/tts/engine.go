package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/logger"

	"github.com/futenglish/speech-service/internal/artifact"
	"github.com/futenglish/speech-service/internal/core"
	"github.com/futenglish/speech-service/internal/tts/text"
)

// Engine validation errors.
var (
	ErrBlankText           = errors.New("text is empty after trimming")
	ErrUnsupportedLanguage = errors.New("unsupported language tag")
)

// Engine is the synthesis engine: it validates and normalizes text, issues
// the remote call under a per-call timeout, and persists the result as an
// artifact. It never consults the cache itself; a cache lookup always
// happens upstream in the orchestrator.
type Engine struct {
	synth      core.Synthesizer
	artifacts  *artifact.Store
	normalizer *text.Normalizer
	voices     map[string]core.VoiceParams
	timeout    time.Duration
	log        *logger.Logger
}

// NewEngine creates a synthesis engine over the given remote synthesizer and
// artifact store. voices maps supported language tags to their parameters.
func NewEngine(
	synth core.Synthesizer,
	artifacts *artifact.Store,
	voices map[string]core.VoiceParams,
	timeout time.Duration,
	log *logger.Logger,
) *Engine {
	return &Engine{
		synth:      synth,
		artifacts:  artifacts,
		normalizer: text.NewNormalizer(),
		voices:     voices,
		timeout:    timeout,
		log:        log,
	}
}

// Normalize exposes the engine's text normalization so callers can compute
// cache fingerprints over exactly the text that would be synthesized.
func (e *Engine) Normalize(raw string) string {
	return e.normalizer.Normalize(raw)
}

// Supports reports whether a voice is configured for the language tag.
func (e *Engine) Supports(language string) bool {
	_, ok := e.voices[language]

	return ok
}

// Synthesize generates audio for one text in one language and returns the
// persisted artifact path. Failures of any kind, including timeout and a
// failed artifact write, surface as an error; there are no internal retries.
func (e *Engine) Synthesize(ctx context.Context, raw, language string) (string, error) {
	voice, ok := e.voices[language]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}

	cleaned := e.normalizer.Normalize(strings.TrimSpace(raw))
	if cleaned == "" {
		return "", ErrBlankText
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	audioData, err := e.synth.Synthesize(callCtx, cleaned, voice)
	if err != nil {
		return "", fmt.Errorf("synthesis failed for language %q: %w", language, err)
	}

	path, err := e.artifacts.Save(language, audioData)
	if err != nil {
		return "", fmt.Errorf("failed to persist synthesized audio: %w", err)
	}

	if e.log != nil {
		e.log.Info("Synthesized %d bytes for language %s: %s", len(audioData), language, path)
	}

	return path, nil
}
