// Package worker provides the NATS worker that exposes the speech delivery
// pipeline as request/reply operations.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/futenglish/speech-service/internal/config"
	"github.com/futenglish/speech-service/internal/core"
	"github.com/futenglish/speech-service/internal/onboarding"
	"github.com/futenglish/speech-service/internal/session"
)

const handleMessageTimeout = 30 * time.Second

// Deliverer is the slice of the delivery orchestrator the worker drives.
type Deliverer interface {
	DeliverPair(ctx context.Context, userID int64, nativeText, foreignText string) (string, string)
	DeliverSingle(ctx context.Context, userID int64, text string) string
	ReplayLast(ctx context.Context, userID int64) (string, string)
	CleanupUser(userID int64)
}

// NatsWorker subscribes to the speech operation subjects and replies with
// object-store keys for generated audio.
type NatsWorker struct {
	natsConnection     *nats.Conn
	subjects           config.NATSConfig
	sessions           *session.Store
	flow               *onboarding.Flow
	pipeline           Deliverer
	store              core.ObjectStore
	chatModel          core.ChatModel
	rateLimitPerMinute int
	log                *logger.Logger
}

// NewNatsWorker creates a new instance of the worker. chatModel may be nil;
// chat requests then get a canned fallback reply.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subjects config.NATSConfig,
	sessions *session.Store,
	flow *onboarding.Flow,
	pipeline Deliverer,
	store core.ObjectStore,
	chatModel core.ChatModel,
	rateLimitPerMinute int,
	log *logger.Logger,
) *NatsWorker {
	return &NatsWorker{
		natsConnection:     natsConnection,
		subjects:           subjects,
		sessions:           sessions,
		flow:               flow,
		pipeline:           pipeline,
		store:              store,
		chatModel:          chatModel,
		rateLimitPerMinute: rateLimitPerMinute,
		log:                log,
	}
}

// Run subscribes all operation subjects and blocks until ctx is cancelled,
// then drains the subscriptions.
func (w *NatsWorker) Run(ctx context.Context) error {
	handlers := map[string]nats.MsgHandler{
		w.subjects.DeliverPairSubject:     w.handleDeliverPair,
		w.subjects.DeliverSingleSubject:   w.handleDeliverSingle,
		w.subjects.ReplaySubject:          w.handleReplay,
		w.subjects.UserResetSubject:       w.handleUserReset,
		w.subjects.OnboardingInputSubject: w.handleOnboardingInput,
		w.subjects.LessonSubject:          w.handleLesson,
		w.subjects.ChatSubject:            w.handleChat,
		w.subjects.ProgressSubject:        w.handleProgress,
	}

	subscriptions := make([]*nats.Subscription, 0, len(handlers))

	for subject, handler := range handlers {
		// Unconfigured operations are simply not offered.
		if subject == "" {
			continue
		}

		sub, err := w.natsConnection.Subscribe(subject, handler)
		if err != nil {
			return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
		}

		subscriptions = append(subscriptions, sub)
	}

	<-ctx.Done()

	for _, sub := range subscriptions {
		drainErr := sub.Drain()
		if drainErr != nil {
			return fmt.Errorf("failed to drain subscription: %w", drainErr)
		}
	}

	return nil
}

func (w *NatsWorker) handleDeliverPair(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	var event DeliverPairEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to unmarshal deliver pair event: %v", err)

		return
	}

	if w.sessions.IsRateLimited(event.UserID, w.rateLimitPerMinute) {
		w.respond(msg, AudioDeliveredEvent{Header: event.Header, RateLimited: true})

		return
	}

	nativePath, foreignPath := w.pipeline.DeliverPair(ctx, event.UserID, event.NativeText, event.ForeignText)

	w.respond(msg, AudioDeliveredEvent{
		Header:     event.Header,
		NativeKey:  w.uploadArtifact(ctx, event.Header.WorkflowID, nativePath),
		ForeignKey: w.uploadArtifact(ctx, event.Header.WorkflowID, foreignPath),
	})
}

func (w *NatsWorker) handleDeliverSingle(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	var event DeliverSingleEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to unmarshal deliver single event: %v", err)

		return
	}

	if w.sessions.IsRateLimited(event.UserID, w.rateLimitPerMinute) {
		w.respond(msg, AudioDeliveredEvent{Header: event.Header, RateLimited: true})

		return
	}

	nativePath := w.pipeline.DeliverSingle(ctx, event.UserID, event.Text)

	w.respond(msg, AudioDeliveredEvent{
		Header:    event.Header,
		NativeKey: w.uploadArtifact(ctx, event.Header.WorkflowID, nativePath),
	})
}

func (w *NatsWorker) handleReplay(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	var event ReplayEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to unmarshal replay event: %v", err)

		return
	}

	if w.sessions.IsRateLimited(event.UserID, w.rateLimitPerMinute) {
		w.respond(msg, AudioDeliveredEvent{Header: event.Header, RateLimited: true})

		return
	}

	nativePath, foreignPath := w.pipeline.ReplayLast(ctx, event.UserID)

	w.respond(msg, AudioDeliveredEvent{
		Header:     event.Header,
		NativeKey:  w.uploadArtifact(ctx, event.Header.WorkflowID, nativePath),
		ForeignKey: w.uploadArtifact(ctx, event.Header.WorkflowID, foreignPath),
	})
}

func (w *NatsWorker) handleUserReset(msg *nats.Msg) {
	var event UserResetEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to unmarshal user reset event: %v", err)

		return
	}

	w.pipeline.CleanupUser(event.UserID)
	removed := w.sessions.Delete(event.UserID)

	w.log.Info("Reset user %d (session existed: %v)", event.UserID, removed)

	w.respond(msg, UserResetDoneEvent{Header: event.Header, Removed: removed})
}

func (w *NatsWorker) handleOnboardingInput(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	var event OnboardingInputEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to unmarshal onboarding input event: %v", err)

		return
	}

	if w.sessions.IsRateLimited(event.UserID, w.rateLimitPerMinute) {
		w.respond(msg, OnboardingReplyEvent{Header: event.Header, RateLimited: true})

		return
	}

	result := w.flow.ProcessInput(event.UserID, event.Input)

	replyPath := w.pipeline.DeliverSingle(ctx, event.UserID, result.Reply)

	w.respond(msg, OnboardingReplyEvent{
		Header:   event.Header,
		Reply:    result.Reply,
		AudioKey: w.uploadArtifact(ctx, event.Header.WorkflowID, replyPath),
		Complete: result.Complete,
	})
}

// uploadArtifact hands a generated artifact to the delivered-audio bucket
// and returns its key. An absent path, or an upload failure, yields an empty
// key; delivery degrades rather than fails.
func (w *NatsWorker) uploadArtifact(ctx context.Context, workflowID, path string) string {
	if path == "" {
		return ""
	}

	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Error("Failed to read artifact %s for workflow %s: %v", path, workflowID, err)

		return ""
	}

	key := filepath.Base(path)

	err = w.store.Upload(ctx, key, data)
	if err != nil {
		w.log.Error("Failed to upload artifact %s for workflow %s: %v", key, workflowID, err)

		return ""
	}

	return key
}

func (w *NatsWorker) respond(msg *nats.Msg, reply any) {
	data, err := json.Marshal(reply)
	if err != nil {
		w.log.Error("Failed to marshal reply event: %v", err)

		return
	}

	err = msg.Respond(data)
	if err != nil {
		w.log.Error("Failed to publish reply event: %v", err)
	}
}
