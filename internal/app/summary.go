package app

import (
	"fmt"
	"strings"

	"dipbot/internal/config"
	"dipbot/internal/strategy"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	summaryTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#7C3AED")).
				Padding(0, 1)

	summaryBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2)

	summaryKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Width(16)
)

// StartupSummary is printed once before the loop starts.
type StartupSummary struct {
	Env       string
	Exchange  string
	Quote     string
	Assets    []string
	Notional  string
	Drop      string
	Rise      string
	Interval  string
	State     string
	Journal   string
	Notify    string
	StatusURL string
}

func buildSummary(cfg *config.Config, exchangeName string, p strategy.Params) *StartupSummary {
	s := &StartupSummary{
		Env:      cfg.App.Env,
		Exchange: exchangeName,
		Quote:    cfg.Trading.Quote,
		Assets:   cfg.Trading.Assets,
		Notional: p.Notional.String() + " " + cfg.Trading.Quote,
		Drop:     percent(p.DropThreshold),
		Rise:     percent(p.RiseThreshold),
		Interval: cfg.Trading.PollInterval().String(),
		State:    cfg.State.Backend + ":" + cfg.State.Path,
		Journal:  "off",
		Notify:   "off",
	}
	if cfg.Journal.Enabled {
		s.Journal = cfg.Journal.Path
	}
	if cfg.Notify.Telegram.Enabled {
		s.Notify = "telegram"
	}
	if addr := strings.TrimSpace(cfg.App.HTTPAddr); addr != "" {
		s.StatusURL = "http://" + addr + "/api/state"
	}
	return s
}

func percent(fraction decimal.Decimal) string {
	return fraction.Mul(decimal.NewFromInt(100)).String() + "%"
}

// Render returns the boxed summary text.
func (s *StartupSummary) Render() string {
	rows := [][2]string{
		{"env", s.Env},
		{"exchange", s.Exchange},
		{"assets", formatList(s.Assets) + " / " + s.Quote},
		{"buy notional", s.Notional},
		{"drop trigger", s.Drop},
		{"rise trigger", s.Rise},
		{"poll interval", s.Interval},
		{"state", s.State},
		{"journal", s.Journal},
		{"notify", s.Notify},
	}
	if s.StatusURL != "" {
		rows = append(rows, [2]string{"status", s.StatusURL})
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, summaryKeyStyle.Render(r[0])+r[1])
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		summaryTitleStyle.Render("dipbot startup summary"),
		summaryBoxStyle.Render(strings.Join(lines, "\n")),
	)
}

func (s *StartupSummary) Print() {
	fmt.Println(s.Render())
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
