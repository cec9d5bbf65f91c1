// Package notify is the outbound notification collaborator. Delivery is
// best-effort and fire-and-forget: the engine never waits on it and a
// failure is only ever logged.
package notify

// Notifier delivers a text message to one recipient, identified by the
// channel's own id (a Telegram chat id here). The return value reports
// delivery so callers can log, nothing more.
type Notifier interface {
	Notify(chatID string, text string) bool
}

// Noop drops every message. Used when no bot token is configured and in
// tests.
type Noop struct{}

func (Noop) Notify(string, string) bool { return false }
