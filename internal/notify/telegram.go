package notify

import (
	"log/slog"
	"strconv"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Telegram sends messages through the Bot API. Only the send path is used;
// chat-id linking happens out of band (the user deep-links the bot and the
// chat id lands on their profile).
type Telegram struct {
	api *telego.Bot
}

// NewTelegram builds the notifier from a bot token.
func NewTelegram(token string) (*Telegram, error) {
	api, err := telego.NewBot(token, telego.WithDiscardLogger())
	if err != nil {
		return nil, err
	}
	return &Telegram{api: api}, nil
}

// Notify sends text to the chat. A malformed chat id or an API failure is
// logged and reported as undelivered, nothing more.
func (t *Telegram) Notify(chatID string, text string) bool {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		slog.Warn("notify: malformed telegram chat id", "chat_id", chatID)
		return false
	}

	_, err = t.api.SendMessage(tu.Message(tu.ID(id), text))
	if err != nil {
		slog.Warn("notify: telegram send failed", "chat_id", chatID, "error", err)
		return false
	}
	return true
}
