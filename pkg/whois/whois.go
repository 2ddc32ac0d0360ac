// Package whois implements parsing of RIR whois database dumps (APNIC, RIPE)
// in the blank-line delimited "key: value" block format.
package whois

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

var fieldRx = regexp.MustCompile(`^([a-zA-Z0-9\-]+):(.*)$`)

// Record is a single whois database object, mapped from field name to value.
// Repeated fields and continuation lines are concatenated onto the existing
// value, continuations with a single space, repeats with a newline.
type Record map[string]string

// Scanner yields successive Records from a raw dump stream. Comment lines
// (`%` for RIPE, `#` for APNIC) are ignored. Lines that are neither a field,
// a continuation, a comment nor blank are counted and skipped, never fatal.
// Only an underlying read error aborts the scan, surfaced through Err.
type Scanner struct {
	scanner      *bufio.Scanner
	record       Record
	lastField    string
	skippedLines int64
	done         bool
}

func NewScanner(reader io.Reader) *Scanner {
	scanner := bufio.NewScanner(reader)
	// Some registry values (long remarks) exceed the default token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &Scanner{scanner: scanner}
}

// Scan advances to the next non-empty record, returning false at end of
// input or on read failure.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}

	current := Record{}
	s.lastField = ""

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if strings.HasPrefix(line, "%") || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				s.record = current

				return true
			}

			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			// Continuation of the previous field's wrapped value.
			if s.lastField == "" {
				s.skippedLines++

				continue
			}

			current[s.lastField] += " " + strings.TrimSpace(line)

			continue
		}

		parts := fieldRx.FindStringSubmatch(line)
		if parts == nil {
			s.skippedLines++

			continue
		}

		name := parts[1]
		value := strings.TrimSpace(parts[2])

		if existing, found := current[name]; found {
			current[name] = existing + "\n" + value
		} else {
			current[name] = value
		}

		s.lastField = name
	}

	s.done = true

	if len(current) > 0 {
		s.record = current

		return true
	}

	return false
}

// Record returns the record read by the last successful call to Scan.
func (s *Scanner) Record() Record {
	return s.record
}

// SkippedLines returns the running count of unparsable lines.
func (s *Scanner) SkippedLines() int64 {
	return s.skippedLines
}

func (s *Scanner) Err() error {
	return s.scanner.Err() //nolint:wrapcheck
}
