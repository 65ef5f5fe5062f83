package conv

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/vesilelab/vesilebot/core/logger"
	"log/slog"
)

// Translation keys the engine itself resolves. Everything else belongs to
// the flows that register the rules.
const (
	keyInvalidOption       = "invalid_option"
	keyTechnicalDifficulty = "technical_difficulty"
	keySessionExpired      = "session_expired"
)

// ErrSessionExpired signals that a handler needed a session attribute that is
// gone (evicted or never set). The engine resets the session and prompts the
// user to restart instead of reporting a technical failure.
var ErrSessionExpired = errors.New("conv: session expired")

// Texts resolves display strings per locale. A missing key must come back as
// the key itself so translation gaps degrade instead of crashing a turn.
type Texts interface {
	Text(locale, key string) string
}

// HandlerFunc consumes a turn and returns the session's next state.
type HandlerFunc func(t *Turn) (State, error)

// Rule binds an event matcher to a handler within one state.
type Rule struct {
	When Matcher
	Do   HandlerFunc
}

// Config tunes the engine.
type Config struct {
	// RestartCommand matches in every state and restarts the conversation.
	RestartCommand string
	// FallbackDelay is how long a turn may go unanswered before the
	// recovery notification fires.
	FallbackDelay time.Duration
	// DefaultLocale backs sessions that have not picked a locale yet.
	DefaultLocale string
	// SessionCapacity bounds the in-memory session store.
	SessionCapacity int
}

// Engine routes inbound events to per-state handlers and applies the
// resulting transitions. The rule table is fixed at startup; dispatch within
// a state walks rules in registration order and the first match wins.
type Engine struct {
	rules   map[State][]Rule
	prompts map[State]HandlerFunc
	entry   HandlerFunc

	texts         Texts
	sessions      *Store
	timers        *Timers
	restart       string
	defaultLocale string
}

// New builds an engine with an empty rule table.
func New(cfg Config, texts Texts, notify NotifyFunc) (*Engine, error) {
	if texts == nil {
		return nil, fmt.Errorf("conv: nil texts provider")
	}
	sessions, err := NewStore(cfg.SessionCapacity)
	if err != nil {
		return nil, err
	}
	restart := strings.TrimSpace(cfg.RestartCommand)
	if restart == "" {
		restart = "/start"
	}
	locale := strings.TrimSpace(cfg.DefaultLocale)
	if locale == "" {
		locale = "en"
	}
	return &Engine{
		rules:         make(map[State][]Rule),
		prompts:       make(map[State]HandlerFunc),
		texts:         texts,
		sessions:      sessions,
		timers:        NewTimers(cfg.FallbackDelay, notify),
		restart:       restart,
		defaultLocale: locale,
	}, nil
}

// Entry registers the handler run for fresh, restarted, and terminal-reset
// sessions.
func (e *Engine) Entry(h HandlerFunc) {
	e.entry = h
}

// Handle appends a transition rule for a state. Registration order is
// evaluation order; register exact-label rules before wildcards.
func (e *Engine) Handle(st State, when Matcher, do HandlerFunc) {
	if when == nil || do == nil {
		return
	}
	e.rules[st] = append(e.rules[st], Rule{When: when, Do: do})
}

// Prompt registers the redisplay handler used when no rule matches in the
// given state. Prompts must not advance the state.
func (e *Engine) Prompt(st State, h HandlerFunc) {
	if h != nil {
		e.prompts[st] = h
	}
}

// Sessions exposes the session store.
func (e *Engine) Sessions() *Store { return e.sessions }

// Timers exposes the fallback timer subsystem.
func (e *Engine) Timers() *Timers { return e.timers }

// Reset clears a session and disarms its fallback timer. Used on explicit
// restarts and by flows that end a conversation.
func (e *Engine) Reset(s *Session) {
	e.timers.Disarm(s.UserID)
	e.sessions.Reset(s)
}

// Shutdown cancels all pending fallback jobs.
func (e *Engine) Shutdown() {
	e.timers.Stop()
}

// OnEvent is the sole entry point for the messaging transport. Events from
// the same sender are processed to completion in arrival order; events for
// different senders dispatch concurrently.
func (e *Engine) OnEvent(ctx context.Context, userID int64, ev Event, out Outbox) error {
	sess := e.sessions.Resolve(userID)
	sess.turnMu.Lock()
	defer sess.turnMu.Unlock()

	e.timers.Arm(userID)

	turn := &Turn{
		Ctx:     ctx,
		Session: sess,
		Event:   ev,
		engine:  e,
		out:     &disarmOutbox{out: out, timers: e.timers, userID: userID},
	}

	if e.isRestart(ev) {
		e.sessions.Reset(sess)
		return e.run(turn, e.entry, "entry")
	}

	state := sess.State()
	if state == StateTerminal {
		e.sessions.Reset(sess)
		state = StateEntry
	}
	if state == StateEntry {
		return e.run(turn, e.entry, "entry")
	}

	for _, rule := range e.rules[state] {
		if rule.When(turn) {
			return e.run(turn, rule.Do, string(state))
		}
	}
	return e.unrecognized(turn, state)
}

func (e *Engine) isRestart(ev Event) bool {
	return ev.Kind == EventText && strings.EqualFold(strings.TrimSpace(ev.Text), e.restart)
}

// run executes a handler, applying its transition on success and holding the
// state in place on any failure. Errors and panics never escape the
// dispatcher; the user gets the translated technical-difficulty notice.
func (e *Engine) run(t *Turn, h HandlerFunc, from string) error {
	if h == nil {
		return nil
	}
	prev := t.Session.State()

	next, err := func() (next State, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("conv: handler panic: %v", r)
				logger.Error(t.Ctx, "conv", "handler.panic",
					slog.Int64("user_id", t.Session.UserID),
					slog.String("state", from),
					slog.String("err", fmt.Sprint(r)),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return h(t)
	}()
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			logger.Warn(t.Ctx, "conv", "session.expired",
				slog.String("status", "skip"),
				slog.Int64("user_id", t.Session.UserID),
				slog.String("state", from),
			)
			// Notice goes out with the session's locale, then the wipe.
			_ = t.Send(t.Text(keySessionExpired), &Keyboard{Remove: true})
			e.Reset(t.Session)
			return nil
		}
		logger.Error(t.Ctx, "conv", "handler.fail",
			slog.String("status", "fail"),
			slog.Int64("user_id", t.Session.UserID),
			slog.String("state", from),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		// State stays put; surface a generic notice and swallow the error
		// so one broken turn cannot take down dispatch for other sessions.
		_ = t.Send(t.Text(keyTechnicalDifficulty), nil)
		return nil
	}

	if next != "" && next != prev {
		t.Session.SetState(next)
		if next == StateTerminal {
			// The record is retained but the conversation is over.
			e.timers.Disarm(t.Session.UserID)
		}
		logger.Debug(t.Ctx, "conv", "fsm.transition",
			slog.String("status", "ok"),
			slog.Int64("user_id", t.Session.UserID),
			slog.String("state", string(prev)),
			slog.String("next_state", string(next)),
		)
	}
	return nil
}

// unrecognized redisplays the current prompt without changing state. Expected
// occurrence, not an error; input is never silently dropped.
func (e *Engine) unrecognized(t *Turn, state State) error {
	logger.Debug(t.Ctx, "conv", "dispatch.unmatched",
		slog.String("status", "skip"),
		slog.Int64("user_id", t.Session.UserID),
		slog.String("state", string(state)),
	)
	if err := t.Send(t.Text(keyInvalidOption), nil); err != nil {
		return err
	}
	prompt, ok := e.prompts[state]
	if !ok {
		return nil
	}
	return e.run(t, func(t *Turn) (State, error) {
		if _, err := prompt(t); err != nil {
			return state, err
		}
		return state, nil
	}, string(state))
}

// Turn carries one inbound event through its handler.
type Turn struct {
	Ctx     context.Context
	Session *Session
	Event   Event

	engine *Engine
	out    Outbox
}

// Locale returns the session's locale, falling back to the engine default.
func (t *Turn) Locale() string {
	if loc, ok := t.Session.AttrString(AttrLocale); ok && loc != "" {
		return loc
	}
	return t.engine.defaultLocale
}

// Text resolves a translation key for the session's locale.
func (t *Turn) Text(key string) string {
	return t.engine.texts.Text(t.Locale(), key)
}

// Textf resolves a translation key and formats it with args.
func (t *Turn) Textf(key string, args ...any) string {
	return fmt.Sprintf(t.Text(key), args...)
}

// Send delivers a text message to the session's channel.
func (t *Turn) Send(text string, kb *Keyboard) error {
	return t.out.SendText(text, kb)
}

// SendVideo delivers a video by URL with an optional caption.
func (t *Turn) SendVideo(url, caption string, kb *Keyboard) error {
	return t.out.SendVideo(url, caption, kb)
}

// End terminates the conversation: attributes are wiped and the next inbound
// event restarts at entry.
func (t *Turn) End() State {
	return StateTerminal
}
