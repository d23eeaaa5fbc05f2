package notifier

import "context"

// TextNotifier is the small surface components depend on to push a message
// without importing a concrete channel such as Telegram.
type TextNotifier interface {
	SendText(ctx context.Context, text string) error
}

// Nop drops every message.
type Nop struct{}

func (Nop) SendText(context.Context, string) error { return nil }
