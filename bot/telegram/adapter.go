// Package telegram adapts telebot updates into conversation events and
// engine sends back into bot API calls.
package telegram

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/vesilelab/vesilebot/bot/conv"
	"github.com/vesilelab/vesilebot/core/telegram/callbacks"
	"github.com/vesilelab/vesilebot/core/telegram/format"
	tghelpers "github.com/vesilelab/vesilebot/core/telegram/helpers"
)

// Adapter satisfies the router's Conversation interface and feeds the engine.
// It also doubles as the flows' media source and operator notifier once it
// has seen the bot instance.
type Adapter struct {
	engine *conv.Engine
	bot    atomic.Pointer[tele.Bot]

	// adminChat receives relayed contact messages.
	adminChat int64
}

// NewAdapter binds an engine.
func NewAdapter(engine *conv.Engine, adminChat int64) *Adapter {
	return &Adapter{engine: engine, adminChat: adminChat}
}

// SetBot hands the adapter the running bot instance. Called from the
// transport's start hook before any update is processed.
func (a *Adapter) SetBot(b *tele.Bot) {
	a.bot.Store(b)
}

// HandleText routes a plain text update.
func (a *Adapter) HandleText(c tele.Context) error {
	ev := conv.TextEvent(c.Text())
	ev.Sender = senderName(c)
	return a.dispatch(c, ev)
}

// HandleMedia routes a video or video-note update.
func (a *Adapter) HandleMedia(c tele.Context) error {
	msg := c.Message()
	if msg == nil {
		return nil
	}
	var m conv.Media
	switch {
	case msg.Video != nil:
		m = conv.Media{FileID: msg.Video.FileID, Size: msg.Video.FileSize, MIME: msg.Video.MIME}
	case msg.VideoNote != nil:
		m = conv.Media{FileID: msg.VideoNote.FileID, Size: msg.VideoNote.FileSize, MIME: "video/mp4"}
	default:
		return nil
	}
	ev := conv.MediaEvent(m)
	ev.Sender = senderName(c)
	return a.dispatch(c, ev)
}

// HandleCallback routes an inline button press.
func (a *Adapter) HandleCallback(c tele.Context) error {
	key, payload := callbacks.ParseCallbackData(c.Callback())
	ev := conv.CallbackEvent(key, payload)
	ev.Sender = senderName(c)
	return a.dispatch(c, ev)
}

func (a *Adapter) dispatch(c tele.Context, ev conv.Event) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	return a.engine.OnEvent(ctx, sender.ID, ev, &teleOutbox{c: c})
}

// Open downloads an uploaded file's bytes from the bot API.
func (a *Adapter) Open(_ context.Context, m conv.Media) (io.ReadCloser, error) {
	bot := a.bot.Load()
	if bot == nil {
		return nil, fmt.Errorf("telegram: bot not started")
	}
	rc, err := bot.File(&tele.File{FileID: m.FileID})
	if err != nil {
		return nil, fmt.Errorf("telegram: download %s: %w", m.FileID, err)
	}
	return rc, nil
}

// Relay forwards a contact message to the operator chat.
func (a *Adapter) Relay(profileID int64, name, text string) error {
	bot := a.bot.Load()
	if bot == nil || a.adminChat == 0 {
		return fmt.Errorf("telegram: no operator chat")
	}
	msg, err := relayMessage(profileID, name, text)
	if err != nil {
		return err
	}
	_, err = bot.Send(&tele.User{ID: a.adminChat}, msg, tele.ModeMarkdownV2)
	return err
}

// relayMessage formats the operator notification. Name and body are
// user-controlled, so both are escaped before they enter the markup.
func relayMessage(profileID int64, name, text string) (string, error) {
	escName, err := format.EscapeMarkdown(name, format.MarkdownV2)
	if err != nil {
		return "", err
	}
	escText, err := format.EscapeMarkdown(text, format.MarkdownV2)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("\\#%d *%s*:\n%s", profileID, escName, escText), nil
}

func senderName(c tele.Context) string {
	s := c.Sender()
	if s == nil {
		return ""
	}
	if s.Username != "" {
		return s.Username
	}
	return s.FirstName
}
