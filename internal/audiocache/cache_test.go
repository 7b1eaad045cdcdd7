package audiocache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeArtifacts tracks a set of "files" in memory.
type fakeArtifacts struct {
	files map[string]bool
}

func newFakeArtifacts(paths ...string) *fakeArtifacts {
	files := make(map[string]bool, len(paths))
	for _, p := range paths {
		files[p] = true
	}

	return &fakeArtifacts{files: files}
}

func (f *fakeArtifacts) Exists(path string) bool { return f.files[path] }

func (f *fakeArtifacts) Remove(path string) error {
	delete(f.files, path)

	return nil
}

func newTestCache(artifacts ArtifactChecker) (*Cache, *time.Time) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := New(3, time.Hour, artifacts, nil)
	cache.now = func() time.Time { return current }

	return cache, &current
}

func TestLookupAfterStoreHits(t *testing.T) {
	t.Parallel()

	artifacts := newFakeArtifacts("/audio/a.ogg")
	cache, _ := newTestCache(artifacts)

	cache.Store("bola", "pt-BR", "/audio/a.ogg")

	path, ok := cache.Lookup("bola", "pt-BR")
	require.True(t, ok)
	assert.Equal(t, "/audio/a.ogg", path)
}

func TestLookupMissesForDifferentLanguage(t *testing.T) {
	t.Parallel()

	artifacts := newFakeArtifacts("/audio/a.ogg")
	cache, _ := newTestCache(artifacts)

	cache.Store("bola", "pt-BR", "/audio/a.ogg")

	_, ok := cache.Lookup("bola", "en-US")
	assert.False(t, ok)
}

func TestExpiredEntryMissesEvenIfFileExists(t *testing.T) {
	t.Parallel()

	artifacts := newFakeArtifacts("/audio/a.ogg")
	cache, clock := newTestCache(artifacts)

	cache.Store("bola", "pt-BR", "/audio/a.ogg")
	*clock = clock.Add(time.Hour)

	_, ok := cache.Lookup("bola", "pt-BR")
	assert.False(t, ok, "expired entry must miss even with the file on disk")
	assert.Equal(t, 0, cache.Len(), "stale entry is pruned on lookup")
}

func TestVanishedArtifactIsSilentMiss(t *testing.T) {
	t.Parallel()

	artifacts := newFakeArtifacts("/audio/a.ogg")
	cache, _ := newTestCache(artifacts)

	cache.Store("bola", "pt-BR", "/audio/a.ogg")
	require.NoError(t, artifacts.Remove("/audio/a.ogg"))

	_, ok := cache.Lookup("bola", "pt-BR")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestSweepDeletesExpiredArtifacts(t *testing.T) {
	t.Parallel()

	artifacts := newFakeArtifacts("/audio/a.ogg", "/audio/b.ogg")
	cache, clock := newTestCache(artifacts)

	cache.Store("bola", "pt-BR", "/audio/a.ogg")
	*clock = clock.Add(30 * time.Minute)
	cache.Store("gol", "pt-BR", "/audio/b.ogg")
	*clock = clock.Add(30 * time.Minute)

	removed := cache.Sweep()
	assert.Equal(t, 1, removed)
	assert.False(t, artifacts.Exists("/audio/a.ogg"), "expired artifact removed from disk")
	assert.True(t, artifacts.Exists("/audio/b.ogg"))
	assert.Equal(t, 1, cache.Len())
}

func TestStoreEvictsOldestAtCapacity(t *testing.T) {
	t.Parallel()

	artifacts := newFakeArtifacts("/a", "/b", "/c", "/d")
	cache, clock := newTestCache(artifacts)

	cache.Store("um", "pt-BR", "/a")
	*clock = clock.Add(time.Minute)
	cache.Store("dois", "pt-BR", "/b")
	*clock = clock.Add(time.Minute)
	cache.Store("tres", "pt-BR", "/c")
	*clock = clock.Add(time.Minute)

	// Capacity is 3; storing a fourth entry evicts the oldest-created.
	cache.Store("quatro", "pt-BR", "/d")

	_, ok := cache.Lookup("um", "pt-BR")
	assert.False(t, ok, "oldest entry evicted")

	_, ok = cache.Lookup("quatro", "pt-BR")
	assert.True(t, ok)
	assert.Equal(t, 3, cache.Len())
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	t.Parallel()

	artifacts := newFakeArtifacts("/a", "/b", "/c", "/a2")
	cache, _ := newTestCache(artifacts)

	cache.Store("um", "pt-BR", "/a")
	cache.Store("dois", "pt-BR", "/b")
	cache.Store("tres", "pt-BR", "/c")

	cache.Store("um", "pt-BR", "/a2")
	assert.Equal(t, 3, cache.Len())

	path, ok := cache.Lookup("um", "pt-BR")
	require.True(t, ok)
	assert.Equal(t, "/a2", path)
}

func TestFingerprintDeterministic(t *testing.T) {
	t.Parallel()

	first := Fingerprint("bola", "pt-BR")
	second := Fingerprint("bola", "pt-BR")
	other := Fingerprint("bola", "en-US")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64)
}
