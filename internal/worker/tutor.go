package worker

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/futenglish/speech-service/internal/chat"
	"github.com/futenglish/speech-service/internal/lesson"
	"github.com/futenglish/speech-service/internal/session"
)

// chatFallbackReply is used when no chat model is configured or the remote
// call fails. The user still gets a spoken answer.
const chatFallbackReply = "Boa! Me conta mais sobre futebol que eu te ajudo com o inglês! ⚽"

func (w *NatsWorker) handleLesson(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	var event LessonEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to unmarshal lesson event: %v", err)

		return
	}

	if w.sessions.IsRateLimited(event.UserID, w.rateLimitPerMinute) {
		w.respond(msg, LessonDeliveredEvent{Header: event.Header, RateLimited: true})

		return
	}

	sess := w.sessions.GetOrCreate(event.UserID)

	lessonID := sess.LessonIndex
	if event.Advance {
		lessonID = lesson.Next(lessonID, sess.Level).ID
		sess = w.sessions.Update(event.UserID, session.Update{LessonIndex: &lessonID})
	}

	item, ok := lesson.ByID(lessonID)
	if !ok {
		// An index outside the catalog restarts from the first lesson.
		item = lesson.Next(0, sess.Level)
		lessonID = item.ID
		sess = w.sessions.Update(event.UserID, session.Update{LessonIndex: &lessonID})
	}

	text, _ := lesson.RenderLessonText(item.ID, sess)

	nativePath, foreignPath := w.pipeline.DeliverPair(
		ctx, event.UserID, lesson.NarrationText(item), lesson.VocabularyText(item),
	)

	w.respond(msg, LessonDeliveredEvent{
		Header:     event.Header,
		LessonID:   item.ID,
		Text:       text,
		NativeKey:  w.uploadArtifact(ctx, event.Header.WorkflowID, nativePath),
		ForeignKey: w.uploadArtifact(ctx, event.Header.WorkflowID, foreignPath),
	})
}

func (w *NatsWorker) handleChat(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	var event ChatMessageEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to unmarshal chat event: %v", err)

		return
	}

	if w.sessions.IsRateLimited(event.UserID, w.rateLimitPerMinute) {
		w.respond(msg, ChatReplyEvent{Header: event.Header, RateLimited: true})

		return
	}

	sess := w.sessions.GetOrCreate(event.UserID)
	reply := w.generateChatReply(ctx, sess, event.Message)

	replyPath := w.pipeline.DeliverSingle(ctx, event.UserID, reply)

	w.respond(msg, ChatReplyEvent{
		Header:   event.Header,
		Reply:    reply,
		AudioKey: w.uploadArtifact(ctx, event.Header.WorkflowID, replyPath),
	})
}

func (w *NatsWorker) generateChatReply(ctx context.Context, sess session.Session, message string) string {
	if w.chatModel == nil {
		return chatFallbackReply
	}

	reply, err := w.chatModel.Generate(ctx, chat.SystemPrompt(sess), message)
	if err != nil {
		w.log.Warn("Chat generation failed for user %d: %v", sess.UserID, err)

		return chatFallbackReply
	}

	return reply
}

func (w *NatsWorker) handleProgress(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	var event ProgressEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to unmarshal progress event: %v", err)

		return
	}

	if w.sessions.IsRateLimited(event.UserID, w.rateLimitPerMinute) {
		w.respond(msg, ProgressReplyEvent{Header: event.Header, RateLimited: true})

		return
	}

	sess := w.sessions.GetOrCreate(event.UserID)
	report := lesson.ProgressStats(sess)

	reportPath := w.pipeline.DeliverSingle(ctx, event.UserID, report)

	w.respond(msg, ProgressReplyEvent{
		Header:   event.Header,
		Report:   report,
		AudioKey: w.uploadArtifact(ctx, event.Header.WorkflowID, reportPath),
	})
}
