package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Zachkp/resume-weblog/internal/config"
)

var (
	primaryColor = lipgloss.Color("#7aa2f7")
	successColor = lipgloss.Color("#9ece6a")
	warningColor = lipgloss.Color("#e0af68")
	dimColor     = lipgloss.Color("#565f89")

	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	warnStyle = lipgloss.NewStyle().
			Foreground(warningColor)
)

// banner is the startup summary printed before the server listens.
func banner(cfg config.Config) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Resume Weblog loaded successfully!"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s http://localhost:%s\n", labelStyle.Render("listening"), cfg.Port)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("admin    "), "/admin/login")

	store := cfg.StoreURL
	if store == "" {
		store = warnStyle.Render("not configured")
	}
	fmt.Fprintf(&b, "%s %s", labelStyle.Render("store    "), store)
	return bannerStyle.Render(b.String())
}
