package conv

import (
	"sort"
	"testing"
)

func TestSessionTypedAttrs(t *testing.T) {
	s := newSession(1)

	s.SetAttr("name", "ada")
	if v, ok := s.AttrString("name"); !ok || v != "ada" {
		t.Fatalf("AttrString = %q, %v", v, ok)
	}
	s.SetAttr("id", int64(42))
	if v, ok := s.AttrInt64("id"); !ok || v != 42 {
		t.Fatalf("AttrInt64 = %d, %v", v, ok)
	}
	s.SetAttr("page", 3)
	if v, ok := s.AttrInt("page"); !ok || v != 3 {
		t.Fatalf("AttrInt = %d, %v", v, ok)
	}
	s.SetAttr("flag", true)
	if !s.AttrBool("flag") {
		t.Fatal("AttrBool = false, want true")
	}

	// Wrong type reads come back as absent, not as a zero-value lie.
	if _, ok := s.AttrInt64("name"); ok {
		t.Fatal("AttrInt64 on a string attr reported ok")
	}

	s.ClearAttr("name")
	if _, ok := s.AttrString("name"); ok {
		t.Fatal("attr survived ClearAttr")
	}
}

func TestSessionInt64Set(t *testing.T) {
	s := newSession(1)
	if got := s.Int64Set("skipped"); got != nil {
		t.Fatalf("empty set = %v, want nil", got)
	}
	s.AddToInt64Set("skipped", 7)
	s.AddToInt64Set("skipped", 9)
	s.AddToInt64Set("skipped", 7) // duplicate

	got := s.Int64Set("skipped")
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	if len(got) != 2 || got[0] != 7 || got[1] != 9 {
		t.Fatalf("set = %v, want [7 9]", got)
	}
}

func TestStoreResolveCreatesOnce(t *testing.T) {
	st, err := NewStore(0)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	a := st.Resolve(1)
	b := st.Resolve(1)
	if a != b {
		t.Fatal("Resolve returned different sessions for the same user")
	}
	if a.State() != StateEntry {
		t.Fatalf("fresh session state = %q, want %q", a.State(), StateEntry)
	}
	if st.Len() != 1 {
		t.Fatalf("Len = %d, want 1", st.Len())
	}
}

func TestStorePeekDoesNotCreate(t *testing.T) {
	st, err := NewStore(0)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, ok := st.Peek(99); ok {
		t.Fatal("Peek created or found a session that should not exist")
	}
	if st.Len() != 0 {
		t.Fatalf("Len = %d, want 0", st.Len())
	}
}

func TestStoreResetWipesStateAndAttrs(t *testing.T) {
	st, err := NewStore(0)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s := st.Resolve(1)
	s.SetState(StateVoting)
	s.SetAttr("k", "v")

	st.Reset(s)
	if s.State() != StateEntry {
		t.Fatalf("state = %q, want %q", s.State(), StateEntry)
	}
	if s.AttrCount() != 0 {
		t.Fatalf("attrs = %d, want 0", s.AttrCount())
	}
}

func TestStoreEvictsBeyondCapacity(t *testing.T) {
	st, err := NewStore(2)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	st.Resolve(1)
	st.Resolve(2)
	st.Resolve(3)
	if st.Len() != 2 {
		t.Fatalf("Len = %d, want capacity 2", st.Len())
	}
	if _, ok := st.Peek(1); ok {
		t.Fatal("oldest session survived past capacity")
	}
}
