package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Render lays out messages as a plain-text replay report.
func Render(messages []Message, stats Stats, since, until time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Gerrit messages (%s – %s)\n", formatBound(since), formatBound(until)))
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	for _, m := range messages {
		b.WriteString(m.Text)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("-", 40) + "\n")
	}

	if len(messages) == 0 {
		b.WriteString("No messages.\n")
	}

	b.WriteString(fmt.Sprintf("\n%d events, %d approvals: %d emitted, %d suppressed, %d filtered, %d failed",
		stats.Events, stats.Approvals, stats.Emitted, stats.Suppressed, stats.Filtered, stats.Failed))
	if stats.Duplicates > 0 {
		b.WriteString(fmt.Sprintf(", %d repeated", stats.Duplicates))
	}
	b.WriteString("\n")

	return b.String()
}

// WriteJSON writes one JSON object per message.
func WriteJSON(w io.Writer, messages []Message) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, m := range messages {
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
	return nil
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return t.Format("Jan 2")
}
