// Package proposal parses change proposals written in Markdown into
// simulation deltas.
//
// A proposal groups bullet items under ADDED, MODIFIED and REMOVED headings:
//
//	## ADDED Specs
//	- auth/mfa: second factor for login
//	  - depends: auth/login, users
//	## MODIFIED
//	- checkout
//	  - adds: payments
//	  - removes: legacy-cart
//	## REMOVED
//	- legacy-cart
package proposal

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/starford/specgraph/internal/apperr"
	"github.com/starford/specgraph/internal/parser"
	"github.com/starford/specgraph/internal/simulate"
)

// Format is a short description of the accepted syntax, for help output.
const Format = `Sections are Markdown headings (level 2 or deeper) starting with ADDED,
MODIFIED or REMOVED. Each top-level bullet "- <spec-id>[: description]" is one
change. Nested bullets attach dependency lists:
  - depends: a, b   (alias: adds) dependencies to add
  - removes: c      dependencies to drop (reported, not simulated)`

// Parse reads a proposal. Bullets outside a recognised section are ignored.
// A bullet with an empty spec id is an error.
func Parse(text string) ([]simulate.DeltaItem, error) {
	var (
		items   []simulate.DeltaItem
		section simulate.ChangeType
		current = -1
		lineNo  int
	)

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if level, title := heading(trimmed); level > 0 {
			current = -1
			section = ""
			if level >= 2 {
				section = sectionKind(title)
			}
			continue
		}

		body, ok := bullet(trimmed)
		if !ok {
			continue
		}
		nested := indent(line) >= 2

		if nested && current >= 0 {
			key, value, ok := strings.Cut(body, ":")
			if !ok {
				continue
			}
			ids := splitIDs(value)
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "depends", "depends on", "dependencies", "adds", "add":
				items[current].NewDependencies = append(items[current].NewDependencies, ids...)
			case "removes", "remove":
				items[current].RemovedDependencies = append(items[current].RemovedDependencies, ids...)
			}
			continue
		}

		if section == "" {
			current = -1
			continue
		}
		id, desc, _ := strings.Cut(body, ":")
		id = cleanID(id)
		if id == "" {
			return nil, apperr.Invalid(fmt.Errorf("proposal: line %d: empty spec id", lineNo))
		}
		items = append(items, simulate.DeltaItem{
			Type:        section,
			SpecID:      id,
			Description: strings.TrimSpace(desc),
		})
		current = len(items) - 1
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("proposal: scan: %w", err)
	}
	return items, nil
}

// heading returns the ATX heading level and its text, or 0.
func heading(s string) (int, string) {
	level := 0
	for level < len(s) && s[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || (level < len(s) && s[level] != ' ') {
		return 0, ""
	}
	return level, strings.TrimSpace(s[level:])
}

func sectionKind(title string) simulate.ChangeType {
	word, _, _ := strings.Cut(title, " ")
	word = strings.Trim(strings.ToUpper(word), ":")
	switch simulate.ChangeType(word) {
	case simulate.ChangeAdded, simulate.ChangeModified, simulate.ChangeRemoved:
		return simulate.ChangeType(word)
	}
	return ""
}

func bullet(s string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(s, marker) {
			return strings.TrimSpace(s[len(marker):]), true
		}
	}
	if s == "-" || s == "*" || s == "+" {
		return "", true
	}
	return "", false
}

func indent(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

func splitIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if id := cleanID(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// cleanID strips Markdown decoration such as `code` or [[links]] around an id.
func cleanID(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`*")
	s = strings.TrimPrefix(s, "[[")
	s = strings.TrimSuffix(s, "]]")
	return parser.NormalizeID(s)
}
