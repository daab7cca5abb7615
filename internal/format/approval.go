// Package format renders Gerrit review events as markdown chat messages.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"gerritbot/internal/gerrit"
)

const (
	LabelCodeReview          = "Code-Review"
	LabelVerified            = "Verified"
	LabelWaitForVerification = "WaitForVerification"
)

// Formatter is immutable and safe for concurrent use. The zero value builds
// links without escaping.
type Formatter struct {
	Escape EscapeFunc
}

func New(escape EscapeFunc) Formatter {
	return Formatter{Escape: escape}
}

// Tracked reports whether approvals of this label produce a message.
func Tracked(label string) bool {
	switch label {
	case LabelCodeReview, LabelWaitForVerification, LabelVerified:
		return true
	}
	return false
}

type icon string

const (
	iconHourglass  icon = "⌛"
	iconThumbsUp   icon = "👍"
	iconMemo       icon = "📝"
	iconThumbsDown icon = "👎"
)

func approvalIcon(label string, value int) icon {
	switch {
	case strings.Contains(label, LabelWaitForVerification):
		return iconHourglass
	case value > 0:
		return iconThumbsUp
	case value == 0:
		return iconMemo
	default:
		return iconThumbsDown
	}
}

func signedValue(value int) string {
	if value > 0 {
		return "+" + strconv.Itoa(value)
	}
	return strconv.Itoa(value)
}

// Approval renders a single approval of a comment-added event. ok is false
// when the label is not tracked; in that case no error is reported even if
// the event is otherwise malformed. On error no message is produced.
func (f Formatter) Approval(event gerrit.Event, approval gerrit.Approval, isHuman bool) (msg string, ok bool, err error) {
	if !Tracked(approval.Type) {
		return "", false, nil
	}

	baseURL, err := DeriveBaseURL(event.Change.URL)
	if err != nil {
		return "", false, err
	}
	value, err := strconv.Atoi(approval.Value)
	if err != nil {
		return "", false, fmt.Errorf("%w: %s=%q", ErrMalformedApprovalValue, approval.Type, approval.Value)
	}
	author, err := f.User(baseURL, event.Author, "reviewer")
	if err != nil {
		return "", false, err
	}

	var b strings.Builder
	b.WriteString(ChangeSubject(event.Change))
	b.WriteString(" (")
	b.WriteString(f.ChangeProject(baseURL, event.Change))
	b.WriteString(")")
	fmt.Fprintf(&b, " %s %s (%s) from %s", approvalIcon(approval.Type, value), signedValue(value), approval.Type, author)

	lines := SelectLines(event.Comment, isHuman)
	if len(lines) == 0 {
		return b.String(), true, nil
	}
	b.WriteString("\n\n")
	b.WriteString(strings.Join(lines, "<br>\n"))
	return b.String(), true, nil
}
