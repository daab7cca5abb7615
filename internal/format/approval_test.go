package format

import (
	"errors"
	"strings"
	"testing"

	"gerritbot/internal/gerrit"
)

const changeURL = "https://review.example.com/1234"

func sampleEvent() gerrit.Event {
	return gerrit.Event{
		Type: gerrit.EventCommentAdded,
		Change: gerrit.Change{
			Project: "core",
			Branch:  "master",
			Subject: "Fix bug",
			URL:     changeURL,
		},
		Author:  gerrit.User{Name: "Alice", Email: "a@x.com"},
		Comment: "Patch Set 3:\n\nLooks good",
	}
}

func TestApprovalEndToEnd(t *testing.T) {
	msg, ok, err := Formatter{}.Approval(sampleEvent(), gerrit.Approval{Type: "Code-Review", Value: "2"}, true)
	if err != nil {
		t.Fatalf("format approval: %v", err)
	}
	if !ok {
		t.Fatal("expected message, got suppressed")
	}
	want := "[Fix bug](https://review.example.com/1234)" +
		" ([core](https://review.example.com/q/project:core+status:open))" +
		" 👍 +2 (Code-Review)" +
		" from [Alice](https://review.example.com/q/reviewer:a@x.com+status:open)" +
		"\n\n> Looks good"
	if msg != want {
		t.Fatalf("unexpected message:\n got: %q\nwant: %q", msg, want)
	}
}

func TestApprovalSuppressesUntrackedLabels(t *testing.T) {
	for _, label := range []string{"Label-X", "code-review", "", "Verified-Plus"} {
		event := sampleEvent()
		event.Comment = "Build FAILURE"
		// Untracked labels win over malformed input.
		event.Change.URL = "no-separator"
		msg, ok, err := Formatter{}.Approval(event, gerrit.Approval{Type: label, Value: "x"}, true)
		if err != nil || ok || msg != "" {
			t.Fatalf("label %q: expected suppression, got msg=%q ok=%v err=%v", label, msg, ok, err)
		}
	}
}

func TestApprovalIconAndSign(t *testing.T) {
	tests := []struct {
		label string
		value string
		want  string
	}{
		{label: "Code-Review", value: "5", want: " 👍 +5 (Code-Review) "},
		{label: "Code-Review", value: "0", want: " 📝 0 (Code-Review) "},
		{label: "Code-Review", value: "-2", want: " 👎 -2 (Code-Review) "},
		{label: "Verified", value: "1", want: " 👍 +1 (Verified) "},
		{label: "Verified", value: "-1", want: " 👎 -1 (Verified) "},
		{label: "WaitForVerification", value: "1", want: " ⌛ +1 (WaitForVerification) "},
		{label: "WaitForVerification", value: "0", want: " ⌛ 0 (WaitForVerification) "},
		{label: "WaitForVerification", value: "-1", want: " ⌛ -1 (WaitForVerification) "},
	}
	for _, tt := range tests {
		t.Run(tt.label+tt.value, func(t *testing.T) {
			msg, ok, err := Formatter{}.Approval(sampleEvent(), gerrit.Approval{Type: tt.label, Value: tt.value}, true)
			if err != nil || !ok {
				t.Fatalf("expected message, got ok=%v err=%v", ok, err)
			}
			if !strings.Contains(msg, tt.want) {
				t.Fatalf("expected %q in %q", tt.want, msg)
			}
		})
	}
}

func TestApprovalIconIsTotal(t *testing.T) {
	for value := -3; value <= 3; value++ {
		got := approvalIcon(LabelCodeReview, value)
		var want icon
		switch {
		case value > 0:
			want = iconThumbsUp
		case value == 0:
			want = iconMemo
		default:
			want = iconThumbsDown
		}
		if got != want {
			t.Fatalf("value %d: expected %s, got %s", value, want, got)
		}
		if approvalIcon(LabelWaitForVerification, value) != iconHourglass {
			t.Fatalf("value %d: expected hourglass for WaitForVerification", value)
		}
	}
}

func TestApprovalWithoutSelectedLinesIsHeaderOnly(t *testing.T) {
	event := sampleEvent()
	event.Comment = "Patch Set 1: Code-Review+1\n\n(2 comments)"
	msg, ok, err := Formatter{}.Approval(event, gerrit.Approval{Type: "Code-Review", Value: "1"}, true)
	if err != nil || !ok {
		t.Fatalf("expected message, got ok=%v err=%v", ok, err)
	}
	if strings.Contains(msg, "\n") {
		t.Fatalf("expected single header line, got %q", msg)
	}
}

func TestApprovalJoinsLinesWithBreaks(t *testing.T) {
	event := sampleEvent()
	event.Comment = "Patch Set 2: Verified-1\r\n\r\nBuild FAILURE: unit\r\nlog: http://ci/1\r\nBuild FAILURE: lint"
	msg, ok, err := Formatter{}.Approval(event, gerrit.Approval{Type: "Verified", Value: "-1"}, false)
	if err != nil || !ok {
		t.Fatalf("expected message, got ok=%v err=%v", ok, err)
	}
	wantSuffix := "\n\n> Build FAILURE: unit<br>\n> Build FAILURE: lint"
	if !strings.HasSuffix(msg, wantSuffix) {
		t.Fatalf("expected suffix %q, got %q", wantSuffix, msg)
	}
}

func TestApprovalKeepsFailureLinesFromBots(t *testing.T) {
	event := sampleEvent()
	event.Comment = "Build FAILURE: timeout"
	msg, _, err := Formatter{}.Approval(event, gerrit.Approval{Type: "Verified", Value: "-1"}, false)
	if err != nil {
		t.Fatalf("format approval: %v", err)
	}
	if !strings.HasSuffix(msg, "\n\n> Build FAILURE: timeout") {
		t.Fatalf("expected failure line to be quoted, got %q", msg)
	}
}

func TestApprovalIsIdempotent(t *testing.T) {
	event := sampleEvent()
	event.Change.Topic = "release"
	event.Change.Branch = "stable"
	approval := gerrit.Approval{Type: "Code-Review", Value: "-1"}
	first, _, err := Formatter{}.Approval(event, approval, true)
	if err != nil {
		t.Fatalf("format approval: %v", err)
	}
	second, _, err := Formatter{}.Approval(event, approval, true)
	if err != nil {
		t.Fatalf("format approval: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical output, got %q and %q", first, second)
	}
}

func TestApprovalErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*gerrit.Event, *gerrit.Approval)
		want   error
	}{
		{
			name:   "url without separator",
			mutate: func(e *gerrit.Event, _ *gerrit.Approval) { e.Change.URL = "review" },
			want:   ErrMalformedURL,
		},
		{
			name:   "non numeric value",
			mutate: func(_ *gerrit.Event, a *gerrit.Approval) { a.Value = "two" },
			want:   ErrMalformedApprovalValue,
		},
		{
			name:   "empty value",
			mutate: func(_ *gerrit.Event, a *gerrit.Approval) { a.Value = "" },
			want:   ErrMalformedApprovalValue,
		},
		{
			name:   "anonymous author",
			mutate: func(e *gerrit.Event, _ *gerrit.Approval) { e.Author = gerrit.User{Username: "ghost"} },
			want:   ErrMissingUserIdentifier,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := sampleEvent()
			approval := gerrit.Approval{Type: "Code-Review", Value: "1"}
			tt.mutate(&event, &approval)
			msg, ok, err := Formatter{}.Approval(event, approval, true)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if ok || msg != "" {
				t.Fatalf("expected no message on error, got ok=%v msg=%q", ok, msg)
			}
		})
	}
}

func TestApprovalWithQueryEscaping(t *testing.T) {
	event := sampleEvent()
	event.Change.Project = "tools/ci bot"
	msg, _, err := New(QueryEscape).Approval(event, gerrit.Approval{Type: "Code-Review", Value: "1"}, true)
	if err != nil {
		t.Fatalf("format approval: %v", err)
	}
	if !strings.Contains(msg, "([tools/ci bot](https://review.example.com/q/project:tools%2Fci+bot+status:open))") {
		t.Fatalf("expected escaped project query, got %q", msg)
	}
	if !strings.Contains(msg, "/q/reviewer:a%40x.com+status:open") {
		t.Fatalf("expected escaped reviewer query, got %q", msg)
	}
}
