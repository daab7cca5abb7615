package report

import "time"

// Message is one formatted chat message, ready for a delivery collaborator.
type Message struct {
	ID           string    `json:"id"`
	ChangeURL    string    `json:"change_url"`
	Project      string    `json:"project"`
	ApprovalType string    `json:"approval_type"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats counts what happened to a batch.
type Stats struct {
	Events     int
	Approvals  int
	Emitted    int
	Suppressed int
	Filtered   int
	Failed     int
	Duplicates int
}
