package worker

import "github.com/book-expert/events"

// Inbound operation events. Every event carries the shared header so replies
// can be correlated by workflow ID.

// DeliverPairEvent requests concurrent narration + vocabulary synthesis.
type DeliverPairEvent struct {
	Header      events.EventHeader `json:"header"`
	UserID      int64              `json:"user_id"`
	NativeText  string             `json:"native_text"`
	ForeignText string             `json:"foreign_text"`
}

// DeliverSingleEvent requests narration-only synthesis.
type DeliverSingleEvent struct {
	Header events.EventHeader `json:"header"`
	UserID int64              `json:"user_id"`
	Text   string             `json:"text"`
}

// ReplayEvent requests the user's last delivered audio again.
type ReplayEvent struct {
	Header events.EventHeader `json:"header"`
	UserID int64              `json:"user_id"`
}

// UserResetEvent requests removal of the user's session and artifacts.
type UserResetEvent struct {
	Header events.EventHeader `json:"header"`
	UserID int64              `json:"user_id"`
}

// OnboardingInputEvent feeds one user message into the onboarding flow.
type OnboardingInputEvent struct {
	Header events.EventHeader `json:"header"`
	UserID int64              `json:"user_id"`
	Input  string             `json:"input"`
}

// AudioDeliveredEvent is the reply to deliver and replay requests. Keys name
// objects in the delivered-audio bucket; an empty key means that leg was not
// produced. RateLimited set means no synthesis was attempted.
type AudioDeliveredEvent struct {
	Header      events.EventHeader `json:"header"`
	NativeKey   string             `json:"native_key"`
	ForeignKey  string             `json:"foreign_key"`
	RateLimited bool               `json:"rate_limited"`
}

// OnboardingReplyEvent is the reply to onboarding input. Reply is the
// Portuguese prompt text; AudioKey is its spoken version when synthesis
// succeeded.
type OnboardingReplyEvent struct {
	Header      events.EventHeader `json:"header"`
	Reply       string             `json:"reply"`
	AudioKey    string             `json:"audio_key"`
	Complete    bool               `json:"complete"`
	RateLimited bool               `json:"rate_limited"`
}

// LessonEvent requests the user's current lesson; Advance moves to the next
// lesson for the user's level first.
type LessonEvent struct {
	Header  events.EventHeader `json:"header"`
	UserID  int64              `json:"user_id"`
	Advance bool               `json:"advance"`
}

// LessonDeliveredEvent is the reply to a lesson request.
type LessonDeliveredEvent struct {
	Header      events.EventHeader `json:"header"`
	LessonID    int                `json:"lesson_id"`
	Text        string             `json:"text"`
	NativeKey   string             `json:"native_key"`
	ForeignKey  string             `json:"foreign_key"`
	RateLimited bool               `json:"rate_limited"`
}

// ChatMessageEvent feeds one free-chat message to the tutor persona.
type ChatMessageEvent struct {
	Header  events.EventHeader `json:"header"`
	UserID  int64              `json:"user_id"`
	Message string             `json:"message"`
}

// ChatReplyEvent is the reply to a chat message.
type ChatReplyEvent struct {
	Header      events.EventHeader `json:"header"`
	Reply       string             `json:"reply"`
	AudioKey    string             `json:"audio_key"`
	RateLimited bool               `json:"rate_limited"`
}

// ProgressEvent requests the user's progress report.
type ProgressEvent struct {
	Header events.EventHeader `json:"header"`
	UserID int64              `json:"user_id"`
}

// ProgressReplyEvent is the reply to a progress request.
type ProgressReplyEvent struct {
	Header      events.EventHeader `json:"header"`
	Report      string             `json:"report"`
	AudioKey    string             `json:"audio_key"`
	RateLimited bool               `json:"rate_limited"`
}

// UserResetDoneEvent is the reply to a reset request.
type UserResetDoneEvent struct {
	Header  events.EventHeader `json:"header"`
	Removed bool               `json:"removed"`
}
