package format

// Link renders a markdown hyperlink.
func Link(text, target string) string {
	return "[" + text + "](" + target + ")"
}

func (f Formatter) QueryLink(baseURL, text, template string, args ...any) string {
	return Link(text, f.QueryURL(baseURL, template, args...))
}
