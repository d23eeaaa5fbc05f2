package executor

import (
	"strings"
	"time"

	"dipbot/internal/gateway/notifier"
	"dipbot/internal/journal"
)

func renderOrderMessage(e journal.Entry, at time.Time) string {
	icon := "✅"
	if e.Status == journal.StatusFailed {
		icon = "❌"
	}
	price := e.Price
	if price == "0" {
		price = ""
	}
	msg := notifier.Message{
		Title: icon + " " + strings.ToUpper(e.Side) + " " + e.Symbol + " " + e.Status,
		Fields: []notifier.Field{
			{Key: "exchange", Value: e.Exchange},
			{Key: "amount", Value: e.Amount},
			{Key: "price", Value: price},
			{Key: "quote", Value: e.QuoteAmount},
			{Key: "order", Value: e.OrderID},
			{Key: "error", Value: e.Error},
		},
		Timestamp: at,
	}
	return msg.RenderMarkdown()
}
