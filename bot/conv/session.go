package conv

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// AttrLocale is the session attribute caching the resolved locale.
// Flows own their other attribute keys; the engine interprets only this one
// (to translate prompts) and never anything else.
const AttrLocale = "locale"

// Session stores conversation state and accumulated input for one user.
// turnMu serializes whole turns so events from the same session are observed
// in arrival order; mu guards state and attributes against the timer path.
type Session struct {
	UserID int64

	turnMu sync.Mutex
	mu     sync.RWMutex
	state  State
	attrs  map[string]any
}

func newSession(userID int64) *Session {
	return &Session{
		UserID: userID,
		state:  StateEntry,
		attrs:  make(map[string]any),
	}
}

// State returns the session's current FSM state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState moves the session to the given state.
func (s *Session) SetState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

// SetAttr stores a value accumulated across turns.
func (s *Session) SetAttr(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs[key] = value
}

// Attr retrieves a stored value.
func (s *Session) Attr(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.attrs[key]
	return v, ok
}

// AttrString retrieves a value and asserts it as string.
func (s *Session) AttrString(key string) (string, bool) {
	v, ok := s.Attr(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// AttrInt64 retrieves a value and asserts it as int64.
func (s *Session) AttrInt64(key string) (int64, bool) {
	v, ok := s.Attr(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

// AttrInt retrieves a value and asserts it as int.
func (s *Session) AttrInt(key string) (int, bool) {
	v, ok := s.Attr(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

// AttrBool retrieves a value and asserts it as bool.
func (s *Session) AttrBool(key string) bool {
	v, ok := s.Attr(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// AddToInt64Set appends an id to a set-valued attribute, creating it if absent.
func (s *Session) AddToInt64Set(key string, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, _ := s.attrs[key].(map[int64]struct{})
	if set == nil {
		set = make(map[int64]struct{})
		s.attrs[key] = set
	}
	set[id] = struct{}{}
}

// Int64Set returns the ids accumulated under a set-valued attribute.
func (s *Session) Int64Set(key string) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, _ := s.attrs[key].(map[int64]struct{})
	if len(set) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// ClearAttr removes a stored value.
func (s *Session) ClearAttr(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attrs, key)
}

// AttrCount reports how many attributes the session holds.
func (s *Session) AttrCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attrs)
}

func (s *Session) wipe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateEntry
	s.attrs = make(map[string]any)
}

// Store resolves user ids to sessions, creating them on first contact.
// The store is bounded: a long-idle session may be evicted, which the engine
// surfaces as an expired conversation on the user's next event.
type Store struct {
	cache *lru.Cache[int64, *Session]
	mu    sync.Mutex
}

// NewStore builds a session store holding at most capacity sessions.
func NewStore(capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = 16384
	}
	cache, err := lru.New[int64, *Session](capacity)
	if err != nil {
		return nil, fmt.Errorf("conv: session store: %w", err)
	}
	return &Store{cache: cache}, nil
}

// Resolve returns the session for a user, creating a fresh one in StateEntry
// if none exists.
func (st *Store) Resolve(userID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.cache.Get(userID); ok {
		return s
	}
	s := newSession(userID)
	st.cache.Add(userID, s)
	return s
}

// Peek returns the session for a user without creating one.
func (st *Store) Peek(userID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cache.Peek(userID)
}

// Reset clears the session's attributes and returns it to StateEntry.
func (st *Store) Reset(s *Session) {
	s.wipe()
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cache.Len()
}
