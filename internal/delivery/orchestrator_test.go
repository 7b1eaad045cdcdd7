package delivery_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futenglish/speech-service/internal/artifact"
	"github.com/futenglish/speech-service/internal/audiocache"
	"github.com/futenglish/speech-service/internal/delivery"
	"github.com/futenglish/speech-service/internal/session"
)

const (
	testNativeLanguage  = "pt-BR"
	testForeignLanguage = "en-US"
)

var errSynthesisDown = errors.New("synthesis backend unavailable")

// fakeEngine trims input for normalization and materializes real artifact
// files, so existence checks during replay behave like production.
type fakeEngine struct {
	mu        sync.Mutex
	artifacts *artifact.Store
	failing   map[string]bool
	calls     []string
}

func newFakeEngine(artifacts *artifact.Store) *fakeEngine {
	return &fakeEngine{
		artifacts: artifacts,
		failing:   make(map[string]bool),
	}
}

func (f *fakeEngine) Normalize(raw string) string {
	return strings.TrimSpace(raw)
}

func (f *fakeEngine) Synthesize(_ context.Context, raw, language string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, language)
	failing := f.failing[language]
	f.mu.Unlock()

	if failing {
		return "", errSynthesisDown
	}

	return f.artifacts.Save(language, []byte("voice:"+language+":"+raw))
}

func (f *fakeEngine) callCount(language string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0

	for _, call := range f.calls {
		if call == language {
			count++
		}
	}

	return count
}

type fixture struct {
	engine    *fakeEngine
	artifacts *artifact.Store
	sessions  *session.Store
	orch      *delivery.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	artifacts, err := artifact.NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	engine := newFakeEngine(artifacts)
	sessions := session.NewStore(time.Hour, time.Hour, nil)
	cache := audiocache.New(100, time.Hour, artifacts, nil)

	return &fixture{
		engine:    engine,
		artifacts: artifacts,
		sessions:  sessions,
		orch: delivery.New(
			engine, cache, artifacts, sessions,
			testNativeLanguage, testForeignLanguage, nil,
		),
	}
}

func TestDeliverPairProducesBothLegs(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	nativePath, foreignPath := fix.orch.DeliverPair(
		t.Context(), 7, "A palavra de hoje é atacante.", "striker",
	)

	require.NotEmpty(t, nativePath)
	require.NotEmpty(t, foreignPath)
	assert.NotEqual(t, nativePath, foreignPath)
	assert.True(t, fix.artifacts.Exists(nativePath))
	assert.True(t, fix.artifacts.Exists(foreignPath))

	sess, ok := fix.sessions.Get(7)
	require.True(t, ok)
	assert.Equal(t, nativePath, sess.LastAudio.NativePath)
	assert.Equal(t, foreignPath, sess.LastAudio.ForeignPath)
	assert.Equal(t, "A palavra de hoje é atacante.", sess.LastAudio.NativeText)
	assert.Equal(t, "striker", sess.LastAudio.ForeignText)
}

func TestDeliverPairFailedLegIsAbsent(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	fix.engine.failing[testForeignLanguage] = true

	nativePath, foreignPath := fix.orch.DeliverPair(t.Context(), 7, "Bem-vindo!", "goalkeeper")

	require.NotEmpty(t, nativePath)
	assert.Empty(t, foreignPath)

	sess, ok := fix.sessions.Get(7)
	require.True(t, ok)
	assert.Empty(t, sess.LastAudio.ForeignPath)
	// The source text is recorded even for the failed leg, so replay can
	// retry it later.
	assert.Equal(t, "goalkeeper", sess.LastAudio.ForeignText)
}

func TestDeliverPairBlankLegSkipsSynthesis(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	nativePath, foreignPath := fix.orch.DeliverPair(t.Context(), 7, "Oi!", "   ")

	assert.NotEmpty(t, nativePath)
	assert.Empty(t, foreignPath)
	assert.Zero(t, fix.engine.callCount(testForeignLanguage))
}

func TestDeliverPairSecondCallHitsCache(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	first, _ := fix.orch.DeliverPair(t.Context(), 7, "Escanteio!", "corner kick")
	second, _ := fix.orch.DeliverPair(t.Context(), 8, "Escanteio!", "corner kick")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fix.engine.callCount(testNativeLanguage))
	assert.Equal(t, 1, fix.engine.callCount(testForeignLanguage))
}

func TestDeliverSingleLeavesForeignSlotAbsent(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	path := fix.orch.DeliverSingle(t.Context(), 7, "Como você se chama?")
	require.NotEmpty(t, path)

	sess, ok := fix.sessions.Get(7)
	require.True(t, ok)
	assert.Equal(t, path, sess.LastAudio.NativePath)
	assert.Empty(t, sess.LastAudio.ForeignPath)
	assert.Empty(t, sess.LastAudio.ForeignText)
}

func TestReplayLastReturnsExistingArtifacts(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	nativePath, foreignPath := fix.orch.DeliverPair(t.Context(), 7, "Impedimento.", "offside")

	replayNative, replayForeign := fix.orch.ReplayLast(t.Context(), 7)

	assert.Equal(t, nativePath, replayNative)
	assert.Equal(t, foreignPath, replayForeign)
	// No regeneration happened.
	assert.Equal(t, 1, fix.engine.callCount(testNativeLanguage))
	assert.Equal(t, 1, fix.engine.callCount(testForeignLanguage))
}

func TestReplayLastRegeneratesVanishedArtifacts(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	nativePath, _ := fix.orch.DeliverPair(t.Context(), 7, "Falta perigosa.", "free kick")
	require.NoError(t, os.Remove(nativePath))

	replayNative, replayForeign := fix.orch.ReplayLast(t.Context(), 7)

	require.NotEmpty(t, replayNative)
	require.NotEmpty(t, replayForeign)
	assert.NotEqual(t, nativePath, replayNative)
	assert.True(t, fix.artifacts.Exists(replayNative))
	assert.Equal(t, 2, fix.engine.callCount(testNativeLanguage))
}

func TestReplayLastWithoutRecordIsAbsent(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	nativePath, foreignPath := fix.orch.ReplayLast(t.Context(), 42)

	assert.Empty(t, nativePath)
	assert.Empty(t, foreignPath)
	assert.Empty(t, fix.engine.calls)
}

func TestCleanupUserIsIdempotent(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	nativePath, foreignPath := fix.orch.DeliverPair(t.Context(), 7, "Fim de jogo.", "full time")

	fix.orch.CleanupUser(7)

	assert.False(t, fix.artifacts.Exists(nativePath))
	assert.False(t, fix.artifacts.Exists(foreignPath))

	sess, ok := fix.sessions.Get(7)
	require.True(t, ok)
	assert.Empty(t, sess.LastAudio.NativePath)
	assert.Empty(t, sess.LastAudio.NativeText)

	// Second pass and unknown users are no-ops.
	fix.orch.CleanupUser(7)
	fix.orch.CleanupUser(999)
}

func TestCleanupOrphanedDelegatesToArtifactSweep(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	path, _ := fix.orch.DeliverPair(t.Context(), 7, "Bola na rede!", "goal")
	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, stale, stale))

	removed := fix.orch.CleanupOrphaned(time.Hour)

	assert.Equal(t, 1, removed)
	assert.False(t, fix.artifacts.Exists(path))
}

func TestConcurrentDeliverPairRecordStaysConsistent(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			narration := "Rodada " + strings.Repeat("a", i+1)
			fix.orch.DeliverPair(t.Context(), 7, narration, "round")
		}()
	}

	wg.Wait()

	sess, ok := fix.sessions.Get(7)
	require.True(t, ok)
	require.NotEmpty(t, sess.LastAudio.NativePath)

	// The record reflects exactly one complete call: the recorded artifact
	// was produced from the recorded text, never from an interleaved call.
	data, err := os.ReadFile(sess.LastAudio.NativePath)
	require.NoError(t, err)
	assert.Equal(t, "voice:"+testNativeLanguage+":"+sess.LastAudio.NativeText, string(data))
}
