// main package for the speech-client debugging tool. It drives the remote
// synthesis service directly, writing artifacts to a local directory, so the
// voice configuration can be tuned without a running NATS deployment.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/book-expert/logger"
	"github.com/joho/godotenv"

	"github.com/futenglish/speech-service/internal/artifact"
	"github.com/futenglish/speech-service/internal/config"
	"github.com/futenglish/speech-service/internal/core"
	"github.com/futenglish/speech-service/internal/tts"
)

// Flag names and descriptions.
const (
	flagNative      = "native"
	flagForeign     = "foreign"
	flagOut         = "out"
	flagHealth      = "health"
	flagNativeDesc  = "Portuguese narration text to synthesize"
	flagForeignDesc = "English vocabulary text to synthesize"
	flagOutDesc     = "Output directory for audio artifacts (defaults to the configured audio dir)"
	flagHealthDesc  = "Check synthesis service health and exit"
)

const (
	logFileName        = "speech-client.log"
	healthCheckTimeout = 10 * time.Second
)

var errNoTextProvided = errors.New("at least one of --native or --foreign must be provided")

type appFlags struct {
	native  string
	foreign string
	out     string
	health  bool
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	_ = godotenv.Load()

	clientLog, err := logger.New(os.TempDir(), logFileName)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = clientLog.Close() }()

	cfg, err := config.Load(clientLog)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if flags.health {
		return handleHealthCheck(cfg)
	}

	return handleSynthesis(cfg, clientLog, flags)
}

func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.native, flagNative, "", flagNativeDesc)
	flag.StringVar(&flags.foreign, flagForeign, "", flagForeignDesc)
	flag.StringVar(&flags.out, flagOut, "", flagOutDesc)
	flag.BoolVar(&flags.health, flagHealth, false, flagHealthDesc)
	flag.Parse()

	return flags
}

func handleHealthCheck(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	client := tts.NewClient(cfg.TTS.BaseURL, healthCheckTimeout, cfg.TTS.Encoding)

	err := client.HealthCheck(ctx)
	if err != nil {
		fmt.Printf("Synthesis service is not healthy: %v\n", err)

		return err
	}

	fmt.Println("Synthesis service is healthy")

	return nil
}

func handleSynthesis(cfg *config.Config, clientLog *logger.Logger, flags appFlags) error {
	if flags.native == "" && flags.foreign == "" {
		flag.Usage()

		return errNoTextProvided
	}

	outDir := flags.out
	if outDir == "" {
		outDir = cfg.Paths.AudioDir
	}

	artifacts, err := artifact.NewStore(outDir, clientLog)
	if err != nil {
		return fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	voices := make(map[string]core.VoiceParams, len(cfg.TTS.Voices))
	for tag := range cfg.TTS.Voices {
		if params, ok := cfg.VoiceFor(tag); ok {
			voices[tag] = params
		}
	}

	engine := tts.NewEngine(
		tts.NewClient(cfg.TTS.BaseURL, cfg.Timeout(), cfg.TTS.Encoding),
		artifacts,
		voices,
		cfg.Timeout(),
		clientLog,
	)

	ctx := context.Background()

	legs := []struct {
		text     string
		language string
	}{
		{flags.native, cfg.TTS.NativeLanguage},
		{flags.foreign, cfg.TTS.ForeignLanguage},
	}

	for _, leg := range legs {
		if leg.text == "" {
			continue
		}

		path, synthErr := engine.Synthesize(ctx, leg.text, leg.language)
		if synthErr != nil {
			return fmt.Errorf("failed to synthesize %s text: %w", leg.language, synthErr)
		}

		fmt.Printf("Generated %s audio: %s\n", leg.language, path)
	}

	return nil
}
