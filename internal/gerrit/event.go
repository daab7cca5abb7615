package gerrit

import "time"

// EventCommentAdded is the stream-events type that carries review approvals.
const EventCommentAdded = "comment-added"

type Event struct {
	Type           string     `json:"type"`
	Change         Change     `json:"change"`
	Author         User       `json:"author"`
	Approvals      []Approval `json:"approvals,omitempty"`
	Comment        string     `json:"comment,omitempty"`
	EventCreatedOn int64      `json:"eventCreatedOn"`
}

// CreatedAt converts eventCreatedOn (unix seconds) into a time.
func (e Event) CreatedAt() time.Time {
	return time.Unix(e.EventCreatedOn, 0)
}

type Approval struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Value       string `json:"value"`
	OldValue    string `json:"oldValue,omitempty"`
}

type Change struct {
	Project string `json:"project"`
	Branch  string `json:"branch"`
	Topic   string `json:"topic,omitempty"`
	ID      string `json:"id"`
	Number  int    `json:"number"`
	Subject string `json:"subject"`
	URL     string `json:"url"`
	Status  string `json:"status,omitempty"`
}

type User struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}
