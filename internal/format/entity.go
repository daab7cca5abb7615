package format

import (
	"fmt"

	"gerritbot/internal/gerrit"
)

const (
	userQuery    = "%s:%s+status:open"
	projectQuery = "project:%s+status:open"
	topicQuery   = "topic:%s+status:open"

	defaultBranch = "master"
)

// User links the user's display name to their open changes in the given role
// (e.g. "reviewer" or "owner"). The query always uses the email.
func (f Formatter) User(baseURL string, user gerrit.User, role string) (string, error) {
	text := user.Name
	if text == "" {
		text = user.Email
	}
	if text == "" {
		return "", fmt.Errorf("%w (username %q)", ErrMissingUserIdentifier, user.Username)
	}
	return f.QueryLink(baseURL, text, userQuery, role, user.Email), nil
}

func ChangeSubject(change gerrit.Change) string {
	return Link(change.Subject, change.URL)
}

// ChangeProject renders the project link followed by the branch (unless it
// is master) and the topic link (if any), in that order.
func (f Formatter) ChangeProject(baseURL string, change gerrit.Change) string {
	s := f.QueryLink(baseURL, change.Project, projectQuery, change.Project)
	if change.Branch != defaultBranch {
		s += ", branch:" + change.Branch
	}
	if change.Topic != "" {
		s += ", topic:" + f.QueryLink(baseURL, change.Topic, topicQuery, change.Topic)
	}
	return s
}
