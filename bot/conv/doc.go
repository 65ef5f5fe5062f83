// Package conv implements the conversation engine: a finite-state dialogue
// dispatcher with per-user sessions and timeout-based recovery. Transition
// rules are registered per state against event matchers; the engine resolves
// the sender's session, arms a fallback timer, dispatches the first matching
// rule, and applies the returned next state. Any successful outbound send
// within a turn disarms the session's fallback timer.
package conv
