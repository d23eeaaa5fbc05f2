package notifier

import (
	"fmt"
	"strings"
	"time"

	"dipbot/internal/pkg/text"
)

const maxMessageLen = 3800

// Field is one "key: value" row of a Message. Rows with an empty value are skipped.
type Field struct {
	Key   string
	Value string
}

// Message is an order notification: a headline followed by aligned fields
// in a Markdown code block.
type Message struct {
	Title     string
	Fields    []Field
	Timestamp time.Time
}

func (m Message) RenderMarkdown() string {
	rows := make([]Field, 0, len(m.Fields)+1)
	width := 0
	for _, f := range m.Fields {
		f.Key, f.Value = strings.TrimSpace(f.Key), strings.TrimSpace(f.Value)
		if f.Key == "" || f.Value == "" {
			continue
		}
		rows = append(rows, f)
	}
	if !m.Timestamp.IsZero() {
		rows = append(rows, Field{Key: "time", Value: m.Timestamp.Format("2006-01-02 15:04:05 MST")})
	}
	for _, f := range rows {
		width = max(width, len(f.Key))
	}

	var b strings.Builder
	if title := strings.TrimSpace(m.Title); title != "" {
		b.WriteString(noFence(title))
		b.WriteString("\n")
	}
	if len(rows) > 0 {
		b.WriteString("```\n")
		for _, f := range rows {
			fmt.Fprintf(&b, "%-*s  %s\n", width+1, f.Key+":", noFence(f.Value))
		}
		b.WriteString("```")
	}
	return text.Truncate(strings.TrimSpace(b.String()), maxMessageLen)
}

// noFence keeps values from closing the code block early.
func noFence(s string) string {
	return strings.ReplaceAll(s, "```", "'''")
}
