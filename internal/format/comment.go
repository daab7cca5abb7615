package format

import "strings"

const quotePrefix = "> "

// IsPatchSetLine reports whether line is Gerrit's "Patch Set N: ..." preamble.
func IsPatchSetLine(line string) bool {
	return strings.HasPrefix(line, "Patch Set")
}

// HasCommentCount reports whether line contains an inline comment counter
// such as "(1 comment)" or "(12 comments)".
func HasCommentCount(line string) bool {
	for i := 0; i < len(line); i++ {
		if line[i] != '(' {
			continue
		}
		j := i + 1
		for j < len(line) && line[j] >= '0' && line[j] <= '9' {
			j++
		}
		if j == i+1 {
			continue
		}
		rest := line[j:]
		if strings.HasPrefix(rest, " comment)") || strings.HasPrefix(rest, " comments)") {
			return true
		}
	}
	return false
}

// SelectLines picks the comment lines worth quoting in chat: everything a
// human wrote except Gerrit's own boilerplate, plus any line reporting a
// FAILURE no matter who wrote it. Selected lines are returned quoted and in
// their original order.
func SelectLines(comment string, isHuman bool) []string {
	var selected []string
	for _, line := range splitLines(comment) {
		switch {
		case isHuman && !IsPatchSetLine(line) && !HasCommentCount(line):
			selected = append(selected, quotePrefix+line)
		case strings.Contains(line, "FAILURE"):
			selected = append(selected, quotePrefix+line)
		}
	}
	return selected
}

// splitLines splits on CR, LF and CRLF. Empty lines produce no entry.
func splitLines(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
}
