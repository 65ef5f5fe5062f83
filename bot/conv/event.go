package conv

import (
	"regexp"
	"strings"
)

// EventKind discriminates the shape of an inbound event.
type EventKind int

const (
	// EventText is a plain text message.
	EventText EventKind = iota
	// EventCallback is an inline button press carrying a key and payload.
	EventCallback
	// EventMedia is an uploaded video.
	EventMedia
)

// Media describes an uploaded file by its transport handle.
type Media struct {
	FileID string
	Size   int64
	MIME   string
}

// Event is an immutable inbound unit of work. Sender carries the display
// name of the account, used only when a profile is first created.
type Event struct {
	Kind            EventKind
	Text            string
	CallbackKey     string
	CallbackPayload string
	Media           *Media
	Sender          string
}

// TextEvent builds a text event.
func TextEvent(text string) Event {
	return Event{Kind: EventText, Text: text}
}

// CallbackEvent builds a callback event.
func CallbackEvent(key, payload string) Event {
	return Event{Kind: EventCallback, CallbackKey: key, CallbackPayload: payload}
}

// MediaEvent builds a media event.
func MediaEvent(m Media) Event {
	return Event{Kind: EventMedia, Media: &m}
}

// Matcher reports whether a rule applies to the current turn.
type Matcher func(t *Turn) bool

// Label matches a text event equal to the localized label for the given
// translation key, resolved against the session's locale at dispatch time.
// Routing stays keyed on stable identifiers; translations remain free to
// change without touching the transition table.
func Label(key string) Matcher {
	return func(t *Turn) bool {
		if t.Event.Kind != EventText {
			return false
		}
		return strings.TrimSpace(t.Event.Text) == t.Text(key)
	}
}

// AnyText matches every text event.
func AnyText() Matcher {
	return func(t *Turn) bool { return t.Event.Kind == EventText }
}

// AnyMedia matches every media event.
func AnyMedia() Matcher {
	return func(t *Turn) bool { return t.Event.Kind == EventMedia }
}

// Any matches every event.
func Any() Matcher {
	return func(t *Turn) bool { return true }
}

// Callback matches a callback event by its key.
func Callback(key string) Matcher {
	return func(t *Turn) bool {
		return t.Event.Kind == EventCallback && t.Event.CallbackKey == key
	}
}

// CallbackPayload matches a callback event by key and exact payload.
func CallbackPayload(key, payload string) Matcher {
	return func(t *Turn) bool {
		return t.Event.Kind == EventCallback &&
			t.Event.CallbackKey == key &&
			t.Event.CallbackPayload == payload
	}
}

// CallbackRe matches a callback event whose payload matches the pattern.
// The pattern is compiled once at registration; rule tables are static,
// so a bad pattern is a programming error.
func CallbackRe(key, pattern string) Matcher {
	re := regexp.MustCompile(pattern)
	return func(t *Turn) bool {
		return t.Event.Kind == EventCallback &&
			t.Event.CallbackKey == key &&
			re.MatchString(t.Event.CallbackPayload)
	}
}
