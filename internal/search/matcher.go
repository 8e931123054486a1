// Package search finds textual matches across the files of a diff and drives
// next/previous navigation over a single global ordering of those matches.
package search

import (
	"strings"

	"duet/internal/align"
)

// DefaultMatchCap bounds per-file match counts on pathological inputs, such
// as a single common character searched in a huge file.
const DefaultMatchCap = 1000

// Match is one occurrence of the query: a line index and the column range of
// the occurrence in runes.
type Match struct {
	Line  int
	Start int
	End   int
}

// Scope restricts which lines are searched.
type Scope int

const (
	// ScopeAll searches every line of the file.
	ScopeAll Scope = iota
	// ScopeChanges searches only lines inside changed alignment ranges.
	ScopeChanges
)

func (s Scope) String() string {
	if s == ScopeChanges {
		return "changes-only"
	}
	return "all"
}

// FindOptions configures a single-file scan.
type FindOptions struct {
	// MaxMatches caps the result count; zero means DefaultMatchCap.
	MaxMatches int
	// Changed, when non-nil, restricts matching to lines in the set.
	Changed map[int]struct{}
}

// FindMatches scans lines for case-insensitive occurrences of query.
// Occurrences may overlap: after each match the scan resumes one rune past
// the match start, not past its end. Only the after side of a diff is ever
// handed to this function; searching one side is a deliberate simplification.
// Returns the matches and whether the cap truncated them.
func FindMatches(lines []string, query string, opts FindOptions) ([]Match, bool) {
	if query == "" {
		return nil, false
	}
	limit := opts.MaxMatches
	if limit <= 0 {
		limit = DefaultMatchCap
	}

	needle := []rune(strings.ToLower(query))
	var matches []Match
	for lineIdx, line := range lines {
		if opts.Changed != nil {
			if _, ok := opts.Changed[lineIdx]; !ok {
				continue
			}
		}
		haystack := []rune(strings.ToLower(line))
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if !runesEqual(haystack[i:i+len(needle)], needle) {
				continue
			}
			// The flag means "something was cut": only the occurrence past
			// the cap proves truncation, so a file with exactly limit
			// occurrences returns them all unflagged.
			if len(matches) == limit {
				return matches, true
			}
			matches = append(matches, Match{Line: lineIdx, Start: i, End: i + len(needle)})
		}
	}
	return matches, false
}

func runesEqual(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FindInFile runs a scoped scan over one file's after-side content, deriving
// the changed-line set from the alignment sequence when scope restricts to
// changes.
func FindInFile(afterLines []string, seq align.Sequence, query string, scope Scope, maxMatches int) ([]Match, bool) {
	opts := FindOptions{MaxMatches: maxMatches}
	if scope == ScopeChanges {
		opts.Changed = seq.ChangedLines(align.SideAfter)
	}
	return FindMatches(afterLines, query, opts)
}
