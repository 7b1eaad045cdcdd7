package session

import (
	"context"
	"sync"
	"time"

	"github.com/book-expert/logger"
)

// Store defaults.
const (
	DefaultIdleTTL       = time.Hour
	DefaultSweepInterval = time.Hour
)

// Store holds one session per user ID behind a store-wide mutex. Readers
// receive snapshots; they never observe a partially applied update.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session

	idleTTL       time.Duration
	sweepInterval time.Duration
	log           *logger.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewStore creates an empty session store. Non-positive durations fall back
// to the defaults (one hour each).
func NewStore(idleTTL, sweepInterval time.Duration, log *logger.Logger) *Store {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}

	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	return &Store{
		sessions:      make(map[int64]*Session),
		idleTTL:       idleTTL,
		sweepInterval: sweepInterval,
		log:           log,
		now:           time.Now,
	}
}

// GetOrCreate returns the session for userID, creating a zero-valued one on
// first contact. It always refreshes the last-interaction timestamp and
// increments the interaction counter.
func (s *Store) GetOrCreate(userID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(userID)
	sess.touch(s.now())

	return sess.snapshot()
}

func (s *Store) getOrCreateLocked(userID int64) *Session {
	sess, ok := s.sessions[userID]
	if !ok {
		now := s.now()
		sess = &Session{
			UserID:       userID,
			Step:         StepAwaitingName,
			LessonIndex:  1,
			SessionStart: now,
		}
		s.sessions[userID] = sess
	}

	return sess
}

// Update applies the named field set atomically in a single critical section
// and refreshes the last-interaction timestamp. The session is created if it
// does not exist yet.
func (s *Store) Update(userID int64, update Update) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(userID)
	sess.apply(update)
	sess.touch(s.now())

	return sess.snapshot()
}

// Get returns the session for userID without creating one.
func (s *Store) Get(userID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}

	return sess.snapshot(), true
}

// Delete removes the session for userID and reports whether one existed.
func (s *Store) Delete(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[userID]
	if ok {
		delete(s.sessions, userID)
	}

	return ok
}

// IsRateLimited records the current call in the user's sliding window,
// prunes entries older than one minute, and reports whether the remaining
// count exceeds maxPerMinute.
func (s *Store) IsRateLimited(userID int64, maxPerMinute int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(userID)
	now := s.now()

	sess.messageTimestamps = append(sess.messageTimestamps, now)
	sess.pruneTimestamps(now)

	return len(sess.messageTimestamps) > maxPerMinute
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// Run drives the periodic idle sweep until ctx is cancelled. It is started
// once from main and stops cleanly on shutdown.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := s.SweepIdle()
			if removed > 0 && s.log != nil {
				s.log.Info("Idle sweep removed %d sessions", removed)
			}
		case <-ctx.Done():
			return
		}
	}
}

// SweepIdle removes every session whose last interaction predates the idle
// TTL and returns how many were removed. It holds the lock only for the
// enumerate-and-remove pass.
func (s *Store) SweepIdle() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	removed := 0

	for userID, sess := range s.sessions {
		if sess.LastInteraction.Before(cutoff) {
			delete(s.sessions, userID)

			removed++
		}
	}

	return removed
}
