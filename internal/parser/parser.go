// Package parser extracts the YAML header, declared dependencies, and in-body
// spec references from a Markdown spec document.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/specgraph/internal/graph"
)

// DependsKey is the header field holding explicit dependencies.
const DependsKey = "depends"

// noneSentinel in the depends field means "no explicit dependency".
const noneSentinel = "none"

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	bracketRe  = regexp.MustCompile(`\[([A-Za-z0-9][\w.-]*(?:/[\w.-]+)*)\]`)
	codeRe     = regexp.MustCompile("`([A-Za-z0-9][\\w.-]*(?:/[\\w.-]+)*)`")
)

// Dependency is one entry of the depends header field.
type Dependency struct {
	ID          string
	Type        graph.EdgeType
	Description string
}

// Result holds the output of parsing a spec document. Warnings are non-fatal
// problems; the document is still usable.
type Result struct {
	Header       map[string]any
	Body         string
	Title        string
	Dependencies []Dependency
	References   []string
	Warnings     []string
}

// Parse splits the header from the body and extracts dependencies,
// references, and the title. It never fails: malformed headers are reported
// in Result.Warnings and the document is treated as header-less.
func Parse(data []byte) *Result {
	header, body, warn := splitHeader(data)
	res := &Result{
		Header: header,
		Body:   body,
		Title:  deriveTitle(header, body),
	}
	if warn != "" {
		res.Warnings = append(res.Warnings, warn)
	}
	if header != nil {
		deps, warnings := parseDepends(header[DependsKey])
		res.Dependencies = deps
		res.Warnings = append(res.Warnings, warnings...)
	}
	res.References = extractReferences(body)
	return res
}

// splitHeader separates YAML front matter (between leading --- delimiters)
// from the Markdown body. Without front matter the whole content is body.
func splitHeader(data []byte) (map[string]any, string, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), ""
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), "header: missing closing delimiter"
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var header map[string]any
	if err := yaml.Unmarshal(yamlBlock, &header); err != nil {
		return nil, body, fmt.Sprintf("header: invalid yaml: %v", err)
	}
	return header, body, ""
}

// parseDepends accepts nil, a scalar (optionally comma separated), a list of
// ids, or a list of {id, type, description} mappings.
func parseDepends(raw any) ([]Dependency, []string) {
	var (
		deps     []Dependency
		warnings []string
		seen     = make(map[string]struct{})
	)
	add := func(d Dependency) {
		d.ID = NormalizeID(d.ID)
		if d.ID == "" || strings.EqualFold(d.ID, noneSentinel) {
			return
		}
		if _, dup := seen[d.ID]; dup {
			return
		}
		seen[d.ID] = struct{}{}
		deps = append(deps, d)
	}

	switch v := raw.(type) {
	case nil:
	case string:
		for _, part := range strings.Split(v, ",") {
			add(Dependency{ID: part, Type: graph.Explicit})
		}
	case []any:
		for i, item := range v {
			switch it := item.(type) {
			case string:
				add(Dependency{ID: it, Type: graph.Explicit})
			case map[string]any:
				d, warn := mappingDependency(it)
				if warn != "" {
					warnings = append(warnings, fmt.Sprintf("depends[%d]: %s", i, warn))
				}
				add(d)
			case nil:
			default:
				warnings = append(warnings, fmt.Sprintf("depends[%d]: unsupported value %v", i, it))
			}
		}
	case map[string]any:
		d, warn := mappingDependency(v)
		if warn != "" {
			warnings = append(warnings, "depends: "+warn)
		}
		add(d)
	default:
		warnings = append(warnings, fmt.Sprintf("depends: unsupported value %v", v))
	}
	return deps, warnings
}

func mappingDependency(m map[string]any) (Dependency, string) {
	d := Dependency{Type: graph.Explicit}
	id, _ := m["id"].(string)
	d.ID = id
	if desc, ok := m["description"].(string); ok {
		d.Description = strings.TrimSpace(desc)
	}
	rawType, _ := m["type"].(string)
	typ, ok := graph.ParseEdgeType(strings.ToLower(strings.TrimSpace(rawType)))
	if !ok || typ == graph.Reference {
		return d, fmt.Sprintf("unknown type %q, using explicit", rawType)
	}
	d.Type = typ
	if strings.TrimSpace(id) == "" {
		return d, "missing id"
	}
	return d, ""
}

type refMatch struct {
	pos int
	id  string
}

// extractReferences returns deduplicated reference targets from [[wikilinks]],
// [bracketed] ids and `code` ids, in order of appearance.
func extractReferences(body string) []string {
	var matches []refMatch

	for _, m := range wikilinkRe.FindAllStringSubmatchIndex(body, -1) {
		raw := body[m[2]:m[3]]
		// [[Target|Alias]] -> Target.
		if i := strings.Index(raw, "|"); i >= 0 {
			raw = raw[:i]
		}
		matches = append(matches, refMatch{pos: m[0], id: raw})
	}
	for _, m := range bracketRe.FindAllStringSubmatchIndex(body, -1) {
		start, end := m[0], m[1]
		if start > 0 && body[start-1] == '[' {
			continue
		}
		if end < len(body) && (body[end] == '(' || body[end] == '[' || body[end] == ']') {
			continue
		}
		id := body[m[2]:m[3]]
		if isTaskBox(body, start, id) {
			continue
		}
		matches = append(matches, refMatch{pos: start, id: id})
	}
	for _, m := range codeRe.FindAllStringSubmatchIndex(body, -1) {
		matches = append(matches, refMatch{pos: m[0], id: body[m[2]:m[3]]})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		id := NormalizeID(m.id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// NormalizeID trims whitespace and surrounding slashes and converts
// backslashes so ids compare equal to store ids.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.ReplaceAll(id, `\`, "/")
	return strings.Trim(id, "/")
}

// deriveTitle returns the header "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(header map[string]any, body string) string {
	if header != nil {
		if s, ok := header["title"].(string); ok && s != "" {
			return s
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// isTaskBox reports whether the [x] at start is a task-list checkbox, i.e.
// the first thing after a "- ", "* " or "+ " list marker.
func isTaskBox(body string, start int, id string) bool {
	if id != "x" && id != "X" {
		return false
	}
	lineStart := strings.LastIndexByte(body[:start], '\n') + 1
	prefix := strings.TrimLeft(body[lineStart:start], " \t")
	return prefix == "- " || prefix == "* " || prefix == "+ "
}
