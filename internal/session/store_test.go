package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetemplate/tinkerpad"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, opts Options) (*Store, *fakeClock) {
	t.Helper()
	if opts.CleanupInterval == 0 {
		opts.CleanupInterval = time.Hour // keep the loop out of the way
	}
	s := NewStore(opts)
	t.Cleanup(s.Stop)

	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s.now = clock.Now
	return s, clock
}

func TestStoreCreateAndGet(t *testing.T) {
	s, _ := newTestStore(t, Options{})

	sess := s.Create()
	require.NotNil(t, sess.Editor)
	require.NotNil(t, sess.Downloads)
	assert.Len(t, sess.ID, 36)

	got, ok := s.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStoreIDsAreUnique(t *testing.T) {
	s, _ := newTestStore(t, Options{})

	seen := make(map[string]bool)
	for range 50 {
		id := s.Create().ID
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestStoreEditorOptions(t *testing.T) {
	s, _ := newTestStore(t, Options{
		EditorOptions: []tinkerpad.Option{
			tinkerpad.WithProjectName("demo"),
			tinkerpad.WithActiveTab(tinkerpad.CSS),
		},
	})

	snap := s.Create().Editor.Snapshot()
	assert.Equal(t, "demo", snap.ProjectName)
	assert.Equal(t, tinkerpad.CSS, snap.ActiveTab)
}

func TestStoreSessionsAreIsolated(t *testing.T) {
	s, _ := newTestStore(t, Options{})

	a := s.Create()
	b := s.Create()
	a.Editor.EditActive("<p>a</p>")

	assert.Equal(t, "<p>a</p>", a.Editor.Snippet(tinkerpad.HTML))
	assert.Empty(t, b.Editor.Snippet(tinkerpad.HTML))
}

func TestStoreSlidingExpiry(t *testing.T) {
	s, clock := newTestStore(t, Options{TTL: 10 * time.Minute})

	sess := s.Create()

	clock.Advance(8 * time.Minute)
	_, ok := s.Get(sess.ID)
	require.True(t, ok, "session should be live before TTL")

	// The Get above refreshed the session.
	clock.Advance(8 * time.Minute)
	_, ok = s.Get(sess.ID)
	require.True(t, ok, "access should extend the session")

	clock.Advance(11 * time.Minute)
	_, ok = s.Get(sess.ID)
	assert.False(t, ok, "idle session should expire")
	assert.Equal(t, 0, s.Len())
}

func TestStoreCleanup(t *testing.T) {
	s, clock := newTestStore(t, Options{TTL: time.Minute})

	old := s.Create()
	clock.Advance(50 * time.Second)
	fresh := s.Create()
	clock.Advance(20 * time.Second)

	assert.Equal(t, 1, s.cleanup())
	_, ok := s.Get(old.ID)
	assert.False(t, ok)
	_, ok = s.Get(fresh.ID)
	assert.True(t, ok)
}

func TestStoreEvictsLeastRecentlyUsed(t *testing.T) {
	s, clock := newTestStore(t, Options{MaxSessions: 2})

	first := s.Create()
	clock.Advance(time.Second)
	second := s.Create()
	clock.Advance(time.Second)

	// Touch the first so the second becomes the eviction candidate.
	_, ok := s.Get(first.ID)
	require.True(t, ok)

	third := s.Create()
	assert.Equal(t, 2, s.Len())

	_, ok = s.Get(second.ID)
	assert.False(t, ok, "least recently used session should be evicted")
	_, ok = s.Get(first.ID)
	assert.True(t, ok)
	_, ok = s.Get(third.ID)
	assert.True(t, ok)
}

func TestStoreRecent(t *testing.T) {
	s, clock := newTestStore(t, Options{TTL: time.Minute})

	_, ok := s.Recent()
	assert.False(t, ok)

	first := s.Create()
	second := s.Create()

	got, ok := s.Recent()
	require.True(t, ok)
	assert.Same(t, second, got)

	_, ok = s.Get(first.ID)
	require.True(t, ok)
	got, _ = s.Recent()
	assert.Same(t, first, got)

	clock.Advance(2 * time.Minute)
	_, ok = s.Recent()
	assert.False(t, ok)
}

func TestStoreStats(t *testing.T) {
	s, clock := newTestStore(t, Options{TTL: time.Hour})

	assert.Equal(t, Stats{}, s.Stats())

	first := s.Create()
	clock.Advance(10 * time.Minute)
	s.Create()
	clock.Advance(5 * time.Minute)

	// Touching a session refreshes its expiry, not its age.
	_, ok := s.Get(first.ID)
	require.True(t, ok)

	assert.Equal(t, Stats{Sessions: 2, OldestAge: 15 * time.Minute}, s.Stats())
}

func TestStoreDelete(t *testing.T) {
	s, _ := newTestStore(t, Options{})

	sess := s.Create()
	s.Delete(sess.ID)
	s.Delete(sess.ID)

	_, ok := s.Get(sess.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStoreStopIdempotent(t *testing.T) {
	s := NewStore(Options{})
	s.Stop()
	s.Stop()
}

func TestStoreConcurrentAccess(t *testing.T) {
	s, _ := newTestStore(t, Options{MaxSessions: 10})

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := s.Create()
			sess.Editor.EditActive("<b>x</b>")
			s.Get(sess.ID)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, s.Len(), 10)
}
