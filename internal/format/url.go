package format

import (
	"fmt"
	"net/url"
	"strings"
)

// EscapeFunc is applied to every value interpolated into a query URL.
type EscapeFunc func(string) string

// Verbatim leaves values untouched. It is the default policy.
func Verbatim(s string) string { return s }

// QueryEscape percent-encodes values so that spaces, '+' and '&' in a project
// or topic name cannot change the meaning of the search.
func QueryEscape(s string) string { return url.QueryEscape(s) }

// DeriveBaseURL strips the change number from a change URL, e.g.
// "https://review.example.com/1234" becomes "https://review.example.com".
func DeriveBaseURL(changeURL string) (string, error) {
	i := strings.LastIndex(changeURL, "/")
	if i < 0 {
		return "", fmt.Errorf("%w: %q has no path separator", ErrMalformedURL, changeURL)
	}
	return changeURL[:i], nil
}

// QueryURL builds "{baseURL}/q/{query}" where query is template with args
// substituted positionally.
func (f Formatter) QueryURL(baseURL, template string, args ...any) string {
	escaped := make([]any, len(args))
	for i, arg := range args {
		escaped[i] = f.escape(fmt.Sprint(arg))
	}
	return baseURL + "/q/" + fmt.Sprintf(template, escaped...)
}

func (f Formatter) escape(s string) string {
	if f.Escape == nil {
		return s
	}
	return f.Escape(s)
}
