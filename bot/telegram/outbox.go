package telegram

import (
	tele "gopkg.in/telebot.v4"

	"github.com/vesilelab/vesilebot/bot/conv"
	"github.com/vesilelab/vesilebot/core/telegram/keyboard"
	tghelpers "github.com/vesilelab/vesilebot/core/telegram/helpers"
)

// teleOutbox delivers engine sends for one update. Text goes through the
// async sender dispatcher; videos are sent inline since the signed URL is
// short-lived.
type teleOutbox struct {
	c tele.Context
}

func (o *teleOutbox) SendText(text string, kb *conv.Keyboard) error {
	markup := toMarkup(kb)
	if markup == nil {
		return tghelpers.SendText(o.c, text)
	}
	return tghelpers.SendText(o.c, text, &tele.SendOptions{ReplyMarkup: markup})
}

func (o *teleOutbox) SendVideo(url, caption string, kb *conv.Keyboard) error {
	video := &tele.Video{File: tele.FromURL(url), Caption: caption}
	if markup := toMarkup(kb); markup != nil {
		return o.c.Send(video, &tele.SendOptions{ReplyMarkup: markup})
	}
	return o.c.Send(video)
}

// toMarkup converts the engine's transport-neutral keyboard into telebot
// reply markup.
func toMarkup(kb *conv.Keyboard) *tele.ReplyMarkup {
	switch {
	case kb == nil:
		return nil
	case kb.Remove:
		return keyboard.RemoveKeyboard()
	case len(kb.Inline) > 0:
		rows := make([][]keyboard.InlineBtn, 0, len(kb.Inline))
		for _, row := range kb.Inline {
			r := make([]keyboard.InlineBtn, 0, len(row))
			for _, b := range row {
				r = append(r, keyboard.InlineBtn{Text: b.Text, Unique: b.Key, Data: b.Data})
			}
			rows = append(rows, r)
		}
		return keyboard.InlineButtonsRows(rows...)
	case len(kb.Reply) > 0:
		markup := keyboard.ReplyButtons(kb.Reply...)
		markup.OneTimeKeyboard = kb.OneTime
		return markup
	default:
		return nil
	}
}
