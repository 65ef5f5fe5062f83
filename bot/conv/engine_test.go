package conv

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type mapTexts map[string]string

func (m mapTexts) Text(locale, key string) string {
	if s, ok := m[locale+"."+key]; ok {
		return s
	}
	return key
}

type sentMessage struct {
	Text     string
	Keyboard *Keyboard
}

type recorderOutbox struct {
	sent []sentMessage
	fail bool
}

func (r *recorderOutbox) SendText(text string, kb *Keyboard) error {
	if r.fail {
		return errors.New("send failed")
	}
	r.sent = append(r.sent, sentMessage{Text: text, Keyboard: kb})
	return nil
}

func (r *recorderOutbox) SendVideo(url, caption string, kb *Keyboard) error {
	if r.fail {
		return errors.New("send failed")
	}
	r.sent = append(r.sent, sentMessage{Text: url, Keyboard: kb})
	return nil
}

func (r *recorderOutbox) last(t *testing.T) sentMessage {
	t.Helper()
	if len(r.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	return r.sent[len(r.sent)-1]
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Config{FallbackDelay: time.Hour}, mapTexts{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.Entry(func(tn *Turn) (State, error) {
		if err := tn.Send("welcome", nil); err != nil {
			return "", err
		}
		return StateLocale, nil
	})
	t.Cleanup(e.Shutdown)
	return e
}

func TestEngineEntryForFreshSession(t *testing.T) {
	e := newTestEngine(t)
	out := &recorderOutbox{}

	if err := e.OnEvent(context.Background(), 1, TextEvent("hi"), out); err != nil {
		t.Fatalf("OnEvent: %v", err)
	}
	if got := out.last(t).Text; got != "welcome" {
		t.Fatalf("sent %q, want welcome", got)
	}
	if st := e.Sessions().Resolve(1).State(); st != StateLocale {
		t.Fatalf("state = %q, want %q", st, StateLocale)
	}
}

func TestEngineDispatchFirstMatchWins(t *testing.T) {
	e := newTestEngine(t)
	var called string
	e.Handle(StateLocale, AnyText(), func(tn *Turn) (State, error) {
		called = "first"
		_ = tn.Send("ok", nil)
		return StateConsent, nil
	})
	e.Handle(StateLocale, AnyText(), func(tn *Turn) (State, error) {
		called = "second"
		return StateConsent, nil
	})

	out := &recorderOutbox{}
	_ = e.OnEvent(context.Background(), 2, TextEvent("hi"), out) // entry
	_ = e.OnEvent(context.Background(), 2, TextEvent("anything"), out)

	if called != "first" {
		t.Fatalf("called = %q, want first", called)
	}
	if st := e.Sessions().Resolve(2).State(); st != StateConsent {
		t.Fatalf("state = %q, want %q", st, StateConsent)
	}
}

func TestEngineUnrecognizedKeepsStateAndRedisplaysPrompt(t *testing.T) {
	e := newTestEngine(t)
	e.Handle(StateLocale, Label("confirm_button"), func(tn *Turn) (State, error) {
		return StateConsent, nil
	})
	e.Prompt(StateLocale, func(tn *Turn) (State, error) {
		if err := tn.Send("pick a language", nil); err != nil {
			return "", err
		}
		return StateLocale, nil
	})

	out := &recorderOutbox{}
	_ = e.OnEvent(context.Background(), 3, TextEvent("hi"), out) // entry
	out.sent = nil
	if err := e.OnEvent(context.Background(), 3, TextEvent("garbage"), out); err != nil {
		t.Fatalf("OnEvent: %v", err)
	}

	if len(out.sent) != 2 {
		t.Fatalf("sent %d messages, want 2 (notice + prompt)", len(out.sent))
	}
	if out.sent[0].Text != "invalid_option" {
		t.Fatalf("first message %q, want invalid_option", out.sent[0].Text)
	}
	if out.sent[1].Text != "pick a language" {
		t.Fatalf("second message %q, want prompt redisplay", out.sent[1].Text)
	}
	if st := e.Sessions().Resolve(3).State(); st != StateLocale {
		t.Fatalf("state = %q, want unchanged %q", st, StateLocale)
	}
}

func TestEngineRestartWipesSession(t *testing.T) {
	e := newTestEngine(t)
	out := &recorderOutbox{}
	_ = e.OnEvent(context.Background(), 4, TextEvent("hi"), out)

	sess := e.Sessions().Resolve(4)
	sess.SetAttr("leftover", "x")
	sess.SetState(StateVoting)

	if err := e.OnEvent(context.Background(), 4, TextEvent("/start"), out); err != nil {
		t.Fatalf("OnEvent: %v", err)
	}
	if sess.AttrCount() != 0 {
		t.Fatalf("attrs = %d, want 0 after restart", sess.AttrCount())
	}
	if st := sess.State(); st != StateLocale {
		t.Fatalf("state = %q, want entry result %q", st, StateLocale)
	}
}

func TestEngineRestartMatchesInEveryState(t *testing.T) {
	e := newTestEngine(t)
	out := &recorderOutbox{}

	for _, st := range []State{StateVoting, StateAdminMenu, StateTranslatorUpload} {
		sess := e.Sessions().Resolve(5)
		sess.SetState(st)
		if err := e.OnEvent(context.Background(), 5, TextEvent("  /Start  "), out); err != nil {
			t.Fatalf("OnEvent in %q: %v", st, err)
		}
		if got := sess.State(); got != StateLocale {
			t.Fatalf("state after restart from %q = %q, want %q", st, got, StateLocale)
		}
	}
}

func TestEngineTerminalResetsToEntryOnNextEvent(t *testing.T) {
	e := newTestEngine(t)
	out := &recorderOutbox{}
	_ = e.OnEvent(context.Background(), 6, TextEvent("hi"), out)

	sess := e.Sessions().Resolve(6)
	sess.SetState(StateTerminal)
	sess.SetAttr("stale", true)

	out.sent = nil
	if err := e.OnEvent(context.Background(), 6, TextEvent("hello again"), out); err != nil {
		t.Fatalf("OnEvent: %v", err)
	}
	if got := out.last(t).Text; got != "welcome" {
		t.Fatalf("sent %q, want entry output", got)
	}
	if sess.AttrCount() != 0 {
		t.Fatalf("attrs survived terminal reset")
	}
}

func TestEngineHandlerErrorKeepsStateAndNotifies(t *testing.T) {
	e := newTestEngine(t)
	e.Handle(StateLocale, AnyText(), func(tn *Turn) (State, error) {
		return "", fmt.Errorf("gateway down")
	})

	out := &recorderOutbox{}
	_ = e.OnEvent(context.Background(), 7, TextEvent("hi"), out) // entry
	out.sent = nil
	if err := e.OnEvent(context.Background(), 7, TextEvent("boom"), out); err != nil {
		t.Fatalf("handler error must not escape dispatch, got %v", err)
	}
	if got := out.last(t).Text; got != "technical_difficulty" {
		t.Fatalf("sent %q, want technical_difficulty", got)
	}
	if st := e.Sessions().Resolve(7).State(); st != StateLocale {
		t.Fatalf("state = %q, want unchanged %q", st, StateLocale)
	}
}

func TestEngineHandlerPanicIsContained(t *testing.T) {
	e := newTestEngine(t)
	e.Handle(StateLocale, AnyText(), func(tn *Turn) (State, error) {
		panic("oops")
	})

	out := &recorderOutbox{}
	_ = e.OnEvent(context.Background(), 8, TextEvent("hi"), out)
	if err := e.OnEvent(context.Background(), 8, TextEvent("boom"), out); err != nil {
		t.Fatalf("panic must not escape dispatch, got %v", err)
	}
	if st := e.Sessions().Resolve(8).State(); st != StateLocale {
		t.Fatalf("state = %q, want unchanged", st)
	}
}

func TestEngineTimerDisarmedByFirstSend(t *testing.T) {
	e := newTestEngine(t)
	e.Handle(StateLocale, Label("quiet"), func(tn *Turn) (State, error) {
		// Sends nothing: the fallback timer must stay armed.
		return StateLocale, nil
	})
	e.Handle(StateLocale, AnyText(), func(tn *Turn) (State, error) {
		if err := tn.Send("reply", nil); err != nil {
			return "", err
		}
		return StateLocale, nil
	})

	out := &recorderOutbox{}
	_ = e.OnEvent(context.Background(), 9, TextEvent("hi"), out)
	if e.Timers().Armed(9) {
		t.Fatal("timer still armed after a successful send")
	}

	_ = e.OnEvent(context.Background(), 9, TextEvent("quiet"), out)
	if !e.Timers().Armed(9) {
		t.Fatal("timer disarmed although the turn sent nothing")
	}
}

func TestEngineFailedSendLeavesTimerArmed(t *testing.T) {
	e := newTestEngine(t)
	out := &recorderOutbox{fail: true}
	_ = e.OnEvent(context.Background(), 10, TextEvent("hi"), out)
	if !e.Timers().Armed(10) {
		t.Fatal("timer disarmed although every send failed")
	}
}

func TestEngineExpiredSessionResetsToEntry(t *testing.T) {
	e := newTestEngine(t)
	e.Handle(StateLocale, AnyText(), func(tn *Turn) (State, error) {
		return "", fmt.Errorf("no cached profile: %w", ErrSessionExpired)
	})

	out := &recorderOutbox{}
	_ = e.OnEvent(context.Background(), 30, TextEvent("hi"), out) // entry
	sess := e.Sessions().Resolve(30)
	sess.SetAttr("leftover", "x")

	if err := e.OnEvent(context.Background(), 30, TextEvent("anything"), out); err != nil {
		t.Fatalf("OnEvent: %v", err)
	}
	if got := out.last(t).Text; got != "session_expired" {
		t.Fatalf("sent %q, want session_expired", got)
	}
	if st := sess.State(); st != StateEntry {
		t.Fatalf("state = %q, want %q", st, StateEntry)
	}
	if sess.AttrCount() != 0 {
		t.Fatalf("attributes survived the reset: %d", sess.AttrCount())
	}
	if e.Timers().Armed(30) {
		t.Fatal("fallback timer left armed after reset")
	}
}
