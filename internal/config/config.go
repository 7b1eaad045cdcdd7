// Package config provides the configuration structure for the speech-service.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"

	"github.com/futenglish/speech-service/internal/core"
)

// Configuration failures detected at startup.
var (
	ErrTTSBaseURLMissing = errors.New("tts base url is required")
	ErrNATSURLMissing    = errors.New("nats url is required")
	ErrNoVoicesDefined   = errors.New("at least one voice must be defined")
	ErrVoiceIncomplete   = errors.New("voice entry is missing language_code or voice_name")
	ErrLanguageNoVoice   = errors.New("no voice configured for language")
)

// Defaults applied when the TOML document leaves a field unset.
const (
	defaultTimeoutSeconds     = 30
	defaultCacheMaxEntries    = 100
	defaultCacheTTLHours      = 1
	defaultSessionTTLHours    = 1
	defaultSweepIntervalHours = 1
	defaultRateLimitPerMinute = 10
	defaultAudioDir           = "/tmp/speech-service/audio"
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                    string `toml:"url"`
	DeliverPairSubject     string `toml:"deliver_pair_subject"`
	DeliverSingleSubject   string `toml:"deliver_single_subject"`
	ReplaySubject          string `toml:"replay_subject"`
	UserResetSubject       string `toml:"user_reset_subject"`
	OnboardingInputSubject string `toml:"onboarding_input_subject"`
	LessonSubject          string `toml:"lesson_subject"`
	ChatSubject            string `toml:"chat_subject"`
	ProgressSubject        string `toml:"progress_subject"`
	DeliveredAudioBucket   string `toml:"delivered_audio_bucket"`
}

// VoiceConfig holds the per-language voice parameters for the remote
// synthesis call.
type VoiceConfig struct {
	LanguageCode string  `toml:"language_code"`
	VoiceName    string  `toml:"voice_name"`
	Gender       string  `toml:"gender"`
	SpeakingRate float64 `toml:"speaking_rate"`
	Pitch        float64 `toml:"pitch"`
	VolumeGainDB float64 `toml:"volume_gain_db"`
}

// TTSConfig holds the remote synthesis service configuration. The native
// language carries tutor narration, the foreign language carries vocabulary
// terms; both must have a voice entry.
type TTSConfig struct {
	BaseURL         string                 `toml:"base_url"`
	TimeoutSeconds  int                    `toml:"timeout_seconds"`
	Encoding        string                 `toml:"encoding"`
	NativeLanguage  string                 `toml:"native_language"`
	ForeignLanguage string                 `toml:"foreign_language"`
	Voices          map[string]VoiceConfig `toml:"voices"`
}

// CacheConfig bounds the synthesis cache.
type CacheConfig struct {
	MaxEntries int `toml:"max_entries"`
	TTLHours   int `toml:"ttl_hours"`
}

// SessionConfig controls session lifecycle and rate limiting.
type SessionConfig struct {
	IdleTTLHours       int `toml:"idle_ttl_hours"`
	SweepIntervalHours int `toml:"sweep_interval_hours"`
	RateLimitPerMinute int `toml:"rate_limit_per_minute"`
}

// ChatConfig holds the generative chat wrapper configuration.
type ChatConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	AudioDir    string `toml:"audio_dir"`
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS    NATSConfig    `toml:"nats"`
	TTS     TTSConfig     `toml:"tts"`
	Cache   CacheConfig   `toml:"cache"`
	Session SessionConfig `toml:"session"`
	Chat    ChatConfig    `toml:"chat"`
	Paths   PathsConfig   `toml:"paths"`
}

// Load loads the configuration for the speech-service, applies defaults and
// validates it. Validation failures here are fatal: the service cannot
// operate without a synthesis endpoint and a voice table.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills unset fields with their documented defaults.
func (c *Config) ApplyDefaults() {
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTimeoutSeconds
	}

	if c.TTS.Encoding == "" {
		c.TTS.Encoding = "ogg_opus"
	}

	if c.TTS.NativeLanguage == "" {
		c.TTS.NativeLanguage = "pt-BR"
	}

	if c.TTS.ForeignLanguage == "" {
		c.TTS.ForeignLanguage = "en-US"
	}

	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = defaultCacheMaxEntries
	}

	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = defaultCacheTTLHours
	}

	if c.Session.IdleTTLHours <= 0 {
		c.Session.IdleTTLHours = defaultSessionTTLHours
	}

	if c.Session.SweepIntervalHours <= 0 {
		c.Session.SweepIntervalHours = defaultSweepIntervalHours
	}

	if c.Session.RateLimitPerMinute <= 0 {
		c.Session.RateLimitPerMinute = defaultRateLimitPerMinute
	}

	if c.Paths.AudioDir == "" {
		c.Paths.AudioDir = defaultAudioDir
	}
}

// Validate reports the first fatal configuration failure found.
func (c *Config) Validate() error {
	if c.TTS.BaseURL == "" {
		return ErrTTSBaseURLMissing
	}

	if c.NATS.URL == "" {
		return ErrNATSURLMissing
	}

	if len(c.TTS.Voices) == 0 {
		return ErrNoVoicesDefined
	}

	for tag, voice := range c.TTS.Voices {
		if voice.LanguageCode == "" || voice.VoiceName == "" {
			return fmt.Errorf("%w: %q", ErrVoiceIncomplete, tag)
		}
	}

	for _, language := range []string{c.TTS.NativeLanguage, c.TTS.ForeignLanguage} {
		if _, ok := c.TTS.Voices[language]; !ok {
			return fmt.Errorf("%w: %q", ErrLanguageNoVoice, language)
		}
	}

	return nil
}

// VoiceFor returns the voice parameters configured for a language tag.
func (c *Config) VoiceFor(language string) (core.VoiceParams, bool) {
	voice, ok := c.TTS.Voices[language]
	if !ok {
		return core.VoiceParams{}, false
	}

	return core.VoiceParams{
		LanguageCode: voice.LanguageCode,
		VoiceName:    voice.VoiceName,
		Gender:       voice.Gender,
		SpeakingRate: voice.SpeakingRate,
		Pitch:        voice.Pitch,
		VolumeGainDB: voice.VolumeGainDB,
	}, true
}

// Timeout returns the per-call synthesis timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TTS.TimeoutSeconds) * time.Second
}
