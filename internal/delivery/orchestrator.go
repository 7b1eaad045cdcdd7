// Package delivery implements the dual-language delivery orchestrator: it
// fans a narration text and a vocabulary text out to the synthesis pipeline
// in parallel, records the results for replay, and owns artifact
// housekeeping for users.
package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/book-expert/logger"

	"github.com/futenglish/speech-service/internal/artifact"
	"github.com/futenglish/speech-service/internal/audiocache"
	"github.com/futenglish/speech-service/internal/session"
)

// Engine is the slice of the synthesis engine the orchestrator needs.
type Engine interface {
	Normalize(raw string) string
	Synthesize(ctx context.Context, raw, language string) (string, error)
}

// Orchestrator coordinates cache, engine, artifact store and session store
// for dual-language delivery. Absence is expressed as an empty path; the
// orchestrator never returns an error to its callers.
type Orchestrator struct {
	engine    Engine
	cache     *audiocache.Cache
	artifacts *artifact.Store
	sessions  *session.Store
	log       *logger.Logger

	nativeLanguage  string
	foreignLanguage string

	// recordMu serializes last-delivered record writes so a record always
	// reflects exactly one complete call.
	recordMu sync.Mutex
}

// New creates the orchestrator. nativeLanguage carries narration,
// foreignLanguage carries vocabulary terms.
func New(
	engine Engine,
	cache *audiocache.Cache,
	artifacts *artifact.Store,
	sessions *session.Store,
	nativeLanguage, foreignLanguage string,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		engine:          engine,
		cache:           cache,
		artifacts:       artifacts,
		sessions:        sessions,
		log:             log,
		nativeLanguage:  nativeLanguage,
		foreignLanguage: foreignLanguage,
	}
}

// DeliverPair synthesizes the narration and vocabulary texts concurrently.
// The two legs are independent: a failure in one resolves that slot to
// absent without aborting the other. Whatever succeeded is recorded, along
// with both source texts, as the user's last delivered audio.
func (o *Orchestrator) DeliverPair(ctx context.Context, userID int64, nativeText, foreignText string) (string, string) {
	var (
		nativePath  string
		foreignPath string
		wg          sync.WaitGroup
	)

	wg.Add(2)

	go func() {
		defer wg.Done()

		nativePath = o.resolve(ctx, nativeText, o.nativeLanguage)
	}()

	go func() {
		defer wg.Done()

		foreignPath = o.resolve(ctx, foreignText, o.foreignLanguage)
	}()

	wg.Wait()

	o.record(userID, session.LastAudio{
		NativePath:  nativePath,
		ForeignPath: foreignPath,
		NativeText:  nativeText,
		ForeignText: foreignText,
	})

	return nativePath, foreignPath
}

// DeliverSingle synthesizes a narration-only text and records it with the
// foreign slot absent.
func (o *Orchestrator) DeliverSingle(ctx context.Context, userID int64, text string) string {
	nativePath := o.resolve(ctx, text, o.nativeLanguage)

	o.record(userID, session.LastAudio{
		NativePath: nativePath,
		NativeText: text,
	})

	return nativePath
}

// ReplayLast returns the user's last delivered artifacts, regenerating any
// leg whose file has vanished from the recorded source texts. It never
// fabricates new text; with no record, both slots are absent.
func (o *Orchestrator) ReplayLast(ctx context.Context, userID int64) (string, string) {
	sess, ok := o.sessions.Get(userID)
	if !ok {
		return "", ""
	}

	last := sess.LastAudio
	if last.NativeText == "" && last.ForeignText == "" {
		return "", ""
	}

	nativeGone := last.NativeText != "" && !o.artifacts.Exists(last.NativePath)
	foreignGone := last.ForeignText != "" && !o.artifacts.Exists(last.ForeignPath)

	if !nativeGone && !foreignGone {
		return last.NativePath, last.ForeignPath
	}

	if o.log != nil {
		o.log.Info("Regenerating vanished audio for user %d", userID)
	}

	if last.ForeignText != "" {
		return o.DeliverPair(ctx, userID, last.NativeText, last.ForeignText)
	}

	return o.DeliverSingle(ctx, userID, last.NativeText), ""
}

// CleanupUser deletes the user's recorded artifacts and clears the record.
// It is idempotent: calling it twice, or for an unknown user, is a no-op.
func (o *Orchestrator) CleanupUser(userID int64) {
	sess, ok := o.sessions.Get(userID)
	if !ok {
		return
	}

	for _, path := range []string{sess.LastAudio.NativePath, sess.LastAudio.ForeignPath} {
		err := o.artifacts.Remove(path)
		if err != nil && o.log != nil {
			o.log.Warn("Failed to remove artifact for user %d: %v", userID, err)
		}
	}

	o.record(userID, session.LastAudio{})
}

// CleanupOrphaned removes artifacts older than ttl from the storage area
// regardless of cache or record linkage, guarding against leaks from
// crashes or partial failures.
func (o *Orchestrator) CleanupOrphaned(ttl time.Duration) int {
	return o.artifacts.SweepOlderThan(ttl)
}

// Run drives the periodic orphan sweep until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := o.CleanupOrphaned(ttl)
			if removed > 0 && o.log != nil {
				o.log.Info("Orphan sweep removed %d stale artifacts", removed)
			}
		case <-ctx.Done():
			return
		}
	}
}

// resolve turns one text/language pair into an artifact path, consulting the
// cache before the engine. Any failure resolves to absent.
func (o *Orchestrator) resolve(ctx context.Context, raw, language string) string {
	normalized := o.engine.Normalize(raw)
	if normalized == "" {
		return ""
	}

	if path, ok := o.cache.Lookup(normalized, language); ok {
		return path
	}

	path, err := o.engine.Synthesize(ctx, raw, language)
	if err != nil {
		if o.log != nil {
			o.log.Warn("Synthesis leg failed for language %s: %v", language, err)
		}

		return ""
	}

	o.cache.Store(normalized, language, path)

	return path
}

// record overwrites the user's last-delivered record in one critical
// section.
func (o *Orchestrator) record(userID int64, last session.LastAudio) {
	o.recordMu.Lock()
	defer o.recordMu.Unlock()

	o.sessions.Update(userID, session.Update{LastAudio: &last})
}
