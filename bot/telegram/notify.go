package telegram

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/vesilelab/vesilebot/bot/conv"
	"github.com/vesilelab/vesilebot/core/logger"
)

// RestartNotifier builds the fallback timer's notify hook: when a turn goes
// unanswered past the deadline, the user is told the bot restarted and is
// offered the restart command. The session is peeked, never created, so a
// stale timer cannot resurrect an evicted conversation.
func (a *Adapter) RestartNotifier(texts conv.Texts, defaultLocale, restartCommand string) conv.NotifyFunc {
	return func(userID int64) {
		bot := a.bot.Load()
		if bot == nil {
			return
		}
		locale := defaultLocale
		if s, ok := a.engine.Sessions().Peek(userID); ok {
			if loc, ok := s.AttrString(conv.AttrLocale); ok && loc != "" {
				locale = loc
			}
		}
		markup := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
		markup.Reply(markup.Row(markup.Text(restartCommand)))

		_, err := bot.Send(&tele.User{ID: userID}, texts.Text(locale, "bot_restarted"), markup)
		if err != nil {
			logger.TG.Warn("fallback notice failed",
				slog.String("event", "fallback.notify"),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
			return
		}
		logger.TG.Debug("fallback notice sent",
			slog.String("event", "fallback.notify"),
			slog.Int64("user_id", userID),
		)
	}
}
