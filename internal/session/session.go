// Package session provides the in-memory per-user session store of the
// speech-service, including rate limiting and idle-session cleanup.
package session

import "time"

// Step identifies the current onboarding step of a session.
type Step string

// Onboarding steps, in order. Complete is terminal.
const (
	StepAwaitingName     Step = "awaiting_name"
	StepAwaitingPosition Step = "awaiting_position"
	StepAwaitingLevel    Step = "awaiting_level"
	StepComplete         Step = "complete"
)

// rateWindow is the sliding window used for rate limiting. Timestamps older
// than this are pruned on every access.
const rateWindow = time.Minute

// LastAudio records the most recently delivered artifacts for a user,
// together with the source texts needed to regenerate them after eviction.
type LastAudio struct {
	NativePath  string
	ForeignPath string
	NativeText  string
	ForeignText string
}

// Session is the mutable per-user record. The user ID is immutable once the
// session is created; everything else changes only through Store.Update.
type Session struct {
	UserID int64

	// Profile collected during onboarding.
	Name     string
	Position string
	Level    string

	// Conversational state.
	Step               Step
	LessonIndex        int
	OnboardingComplete bool

	// Activity tracking.
	LastInteraction   time.Time
	TotalInteractions int
	SessionStart      time.Time

	// Last delivered audio, for replay on demand.
	LastAudio LastAudio

	messageTimestamps []time.Time
}

// Update is the explicit partial-update set applied by Store.Update. Nil
// fields are left untouched, so callers name exactly the fields they change.
type Update struct {
	Name               *string
	Position           *string
	Level              *string
	Step               *Step
	LessonIndex        *int
	OnboardingComplete *bool
	LastAudio          *LastAudio
}

// apply mutates the session in place. Callers hold the store lock.
func (s *Session) apply(u Update) {
	if u.Name != nil {
		s.Name = *u.Name
	}

	if u.Position != nil {
		s.Position = *u.Position
	}

	if u.Level != nil {
		s.Level = *u.Level
	}

	if u.Step != nil {
		s.Step = *u.Step
	}

	if u.LessonIndex != nil {
		s.LessonIndex = *u.LessonIndex
	}

	if u.OnboardingComplete != nil {
		s.OnboardingComplete = *u.OnboardingComplete
	}

	if u.LastAudio != nil {
		s.LastAudio = *u.LastAudio
	}
}

// touch refreshes the activity markers. Callers hold the store lock.
func (s *Session) touch(now time.Time) {
	s.LastInteraction = now
	s.TotalInteractions++
}

// pruneTimestamps drops window entries older than the rate window. Callers
// hold the store lock.
func (s *Session) pruneTimestamps(now time.Time) {
	cutoff := now.Add(-rateWindow)
	kept := s.messageTimestamps[:0]

	for _, ts := range s.messageTimestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	s.messageTimestamps = kept
}

// snapshot returns a copy safe to hand to callers outside the lock.
func (s *Session) snapshot() Session {
	copied := *s
	copied.messageTimestamps = nil

	return copied
}
