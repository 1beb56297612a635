// Package session keeps editing sessions in memory with sliding expiry.
package session

import (
	"container/list"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/livetemplate/tinkerpad"
)

// Session is one browser's editing state.
type Session struct {
	ID     string
	Editor *tinkerpad.Editor

	// Downloads holds files offered to the browser until it fetches them.
	Downloads *DownloadQueue

	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen returns the time the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Options configures a Store.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	MaxSessions     int

	// EditorOptions are applied to the editor of every new session.
	EditorOptions []tinkerpad.Option
}

// Store is an in-memory session registry. Idle sessions expire after TTL;
// when MaxSessions is reached the least recently used session is evicted.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*list.Element
	lru      *list.List // front = most recently used

	ttl        time.Duration
	maxEntries int
	editorOpts []tinkerpad.Option
	now        func() time.Time

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once // Ensures Stop() is idempotent
}

// NewStore creates a store and starts its cleanup loop.
func NewStore(opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 1000
	}

	s := &Store{
		sessions:        make(map[string]*list.Element),
		lru:             list.New(),
		ttl:             opts.TTL,
		maxEntries:      opts.MaxSessions,
		editorOpts:      opts.EditorOptions,
		now:             time.Now,
		cleanupInterval: opts.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Create starts a new session with a fresh editor.
func (s *Store) Create() *Session {
	queue := NewDownloadQueue()
	opts := append([]tinkerpad.Option{tinkerpad.WithSaver(queue)}, s.editorOpts...)

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Editor:    tinkerpad.NewEditor(opts...),
		Downloads: queue,
		CreatedAt: now,
		lastSeen:  now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for s.lru.Len() >= s.maxEntries {
		oldest := s.lru.Back()
		evicted := s.lru.Remove(oldest).(*Session)
		delete(s.sessions, evicted.ID)
		log.Printf("[Session] Evicted %s after %s (capacity %d reached)", evicted.ID, now.Sub(evicted.CreatedAt).Round(time.Second), s.maxEntries)
	}

	s.sessions[sess.ID] = s.lru.PushFront(sess)
	log.Printf("[Session] Created %s", sess.ID)
	return sess
}

// Get returns the session and refreshes its expiry. Expired sessions are
// removed and reported as missing.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess := elem.Value.(*Session)

	now := s.now()
	if now.Sub(sess.LastSeen()) > s.ttl {
		s.removeElement(elem)
		return nil, false
	}

	sess.touch(now)
	s.lru.MoveToFront(elem)
	return sess, true
}

// Recent returns the most recently used live session without refreshing it.
func (s *Store) Recent() (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem := s.lru.Front()
	if elem == nil {
		return nil, false
	}
	sess := elem.Value.(*Session)
	if s.now().Sub(sess.LastSeen()) > s.ttl {
		return nil, false
	}
	return sess, true
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.sessions[id]; ok {
		s.removeElement(elem)
	}
}

func (s *Store) removeElement(elem *list.Element) {
	sess := s.lru.Remove(elem).(*Session)
	delete(s.sessions, sess.ID)
}

// cleanupLoop periodically removes expired sessions
func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.cleanup(); n > 0 {
				log.Printf("[Session] Expired %d idle session(s)", n)
			}
		case <-s.stopCleanup:
			return
		}
	}
}

// cleanup removes all expired sessions and returns how many were dropped.
// The LRU list is ordered by last use, so the sweep stops at the first
// session that is still live.
func (s *Store) cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for elem := s.lru.Back(); elem != nil; {
		sess := elem.Value.(*Session)
		if now.Sub(sess.LastSeen()) <= s.ttl {
			break
		}
		prev := elem.Prev()
		s.removeElement(elem)
		removed++
		elem = prev
	}
	return removed
}

// Stop stops the background cleanup goroutine
// Safe to call multiple times
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCleanup)
	})
}

// Stats summarizes the sessions held.
type Stats struct {
	Sessions  int
	OldestAge time.Duration // since the oldest live session was created
}

// Stats returns the session count and the age of the oldest session.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st := Stats{Sessions: s.lru.Len()}
	for elem := s.lru.Front(); elem != nil; elem = elem.Next() {
		if age := now.Sub(elem.Value.(*Session).CreatedAt); age > st.OldestAge {
			st.OldestAge = age
		}
	}
	return st
}

// Len returns the number of sessions held
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}
