// Package gerrit holds the Gerrit stream-events records consumed by the
// formatter and a reader for captured stream-events output.
package gerrit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// maxLineSize bounds a single stream-events line. Longer lines are skipped
// and reported as a LineError wrapping ErrLineTooLong.
const maxLineSize = 4 << 20

var ErrLineTooLong = errors.New("line exceeds 4 MiB")

// LineError reports a line that could not be decoded.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// ReadEvents decodes one JSON event per line and keeps those created inside
// [since, until]. A zero bound is open. Undecodable or oversized lines are
// skipped and reported together in the returned error, which is non-nil
// alongside a usable slice of events; only a read failure aborts.
func ReadEvents(r io.Reader, since, until time.Time) ([]Event, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	var events []Event
	var lineErrs []error
	for lineNo := 1; ; lineNo++ {
		raw, err := readLine(br)
		if err == io.EOF {
			break
		}
		if errors.Is(err, ErrLineTooLong) {
			lineErrs = append(lineErrs, &LineError{Line: lineNo, Err: err})
			continue
		}
		if err != nil {
			return events, fmt.Errorf("reading events: %w", err)
		}

		line := strings.TrimSpace(string(raw))
		if line == "" {
			continue
		}

		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			lineErrs = append(lineErrs, &LineError{Line: lineNo, Err: err})
			continue
		}

		created := e.CreatedAt()
		if !since.IsZero() && created.Before(since) {
			continue
		}
		if !until.IsZero() && created.After(until) {
			continue
		}
		events = append(events, e)
	}
	return events, errors.Join(lineErrs...)
}

// readLine returns the next line without its terminator. The remainder of a
// line longer than maxLineSize is consumed and ErrLineTooLong returned, so
// the reader stays positioned at the following line.
func readLine(br *bufio.Reader) ([]byte, error) {
	var line []byte
	tooLong := false
	for {
		frag, isPrefix, err := br.ReadLine()
		if err != nil {
			if err == io.EOF && (len(line) > 0 || tooLong) {
				break
			}
			return nil, err
		}
		if !tooLong {
			if len(line)+len(frag) > maxLineSize {
				tooLong = true
				line = nil
			} else {
				line = append(line, frag...)
			}
		}
		if !isPrefix {
			break
		}
	}
	if tooLong {
		return nil, ErrLineTooLong
	}
	return line, nil
}

// ReadEventsFile is ReadEvents over a file; "-" reads stdin.
func ReadEventsFile(path string, since, until time.Time) ([]Event, error) {
	if path == "-" {
		return ReadEvents(os.Stdin, since, until)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	events, err := ReadEvents(f, since, until)
	if err != nil {
		return events, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}
