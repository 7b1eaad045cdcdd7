// main package for the speech-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/futenglish/speech-service/internal/artifact"
	"github.com/futenglish/speech-service/internal/audiocache"
	"github.com/futenglish/speech-service/internal/chat"
	"github.com/futenglish/speech-service/internal/config"
	"github.com/futenglish/speech-service/internal/core"
	"github.com/futenglish/speech-service/internal/delivery"
	"github.com/futenglish/speech-service/internal/objectstore"
	"github.com/futenglish/speech-service/internal/onboarding"
	"github.com/futenglish/speech-service/internal/session"
	"github.com/futenglish/speech-service/internal/tts"
	"github.com/futenglish/speech-service/internal/worker"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "speech-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logsDir := cfg.Paths.BaseLogsDir
	if logsDir == "" {
		logsDir = os.TempDir()
	}

	finalLog, err := setupLogger(logsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, finalLog)
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	deliveredAudio, err := objectstore.New(jetstreamContext, cfg.NATS.DeliveredAudioBucket)
	if err != nil {
		return fmt.Errorf("failed to initialize delivered audio bucket: %w", err)
	}

	artifacts, err := artifact.NewStore(cfg.Paths.AudioDir, log)
	if err != nil {
		return fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	sessions := session.NewStore(
		time.Duration(cfg.Session.IdleTTLHours)*time.Hour,
		time.Duration(cfg.Session.SweepIntervalHours)*time.Hour,
		log,
	)

	cacheTTL := time.Duration(cfg.Cache.TTLHours) * time.Hour
	cache := audiocache.New(cfg.Cache.MaxEntries, cacheTTL, artifacts, log)

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
		log,
	)

	orchestrator := delivery.New(
		engine, cache, artifacts, sessions,
		cfg.TTS.NativeLanguage, cfg.TTS.ForeignLanguage,
		log,
	)

	var chatModel core.ChatModel
	if cfg.Chat.APIKey != "" {
		chatModel = chat.NewClient(cfg.Chat.APIKey, cfg.Chat.BaseURL, cfg.Chat.Model)
	} else {
		log.Warn("No chat API key configured; chat replies fall back to canned text")
	}

	go sessions.Run(ctx)
	go cache.Run(ctx, cacheTTL)
	go orchestrator.Run(ctx, cacheTTL, cacheTTL)

	natsWorker := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS,
		sessions,
		onboarding.NewFlow(sessions),
		orchestrator,
		deliveredAudio,
		chatModel,
		cfg.Session.RateLimitPerMinute,
		log,
	)

	log.System(
		"Speech service initialized. Languages %s/%s, listening on %s",
		cfg.TTS.NativeLanguage, cfg.TTS.ForeignLanguage, cfg.NATS.DeliverPairSubject,
	)

	err = natsWorker.Run(ctx)
	if err != nil {
		return fmt.Errorf("worker stopped with error: %w", err)
	}

	log.System("Speech service shut down cleanly.")

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
