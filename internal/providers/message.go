package providers

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot"

	"notification-orchestrator/internal/models"
)

// EscalationText renders a notification as a Telegram MarkdownV2 message. Only
// the title markers are markup; every interpolated value is escaped.
func EscalationText(n models.Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", escapeMarkdown(n.Title))
	if n.Description != "" {
		fmt.Fprintf(&b, "%s\n", escapeMarkdown(n.Description))
	}
	b.WriteString("\n")
	b.WriteString(escapeMarkdown(EscalationBody(n)))
	return b.String()
}

// escapeMarkdown escapes s for MarkdownV2, backslashes included.
func escapeMarkdown(s string) string {
	return bot.EscapeMarkdown(strings.ReplaceAll(s, `\`, `\\`))
}

// EscalationBody is the plain-text detail block shared by every provider.
func EscalationBody(n models.Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Priority: %s\n", n.Priority)
	fmt.Fprintf(&b, "Type: %s\n", n.Category)
	fmt.Fprintf(&b, "Case: %s (%s)\n", n.CaseID, n.PatientName)
	fmt.Fprintf(&b, "Score: %.1f\n", n.Score)
	if payer := n.Payer(); payer != "" {
		fmt.Fprintf(&b, "Payer: %s\n", payer)
	}
	if n.IsBundled {
		fmt.Fprintf(&b, "Bundled alerts: %d\n", n.Count)
	}
	for _, a := range n.Actions {
		if a.URL != "" {
			fmt.Fprintf(&b, "%s: %s\n", a.Label, a.URL)
		}
	}
	return b.String()
}

// SMSText is a single-line summary short enough for one SMS segment in most cases.
func SMSText(n models.Notification) string {
	text := fmt.Sprintf("[%s] %s", strings.ToUpper(string(n.Priority)), n.Title)
	if n.IsBundled {
		return text
	}
	return fmt.Sprintf("%s (case %s)", text, n.CaseID)
}
