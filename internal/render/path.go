package render

import (
	"fmt"
	"strconv"
	"strings"
)

// segment is one step of a dotted-path expression. Either a name accessed
// as an attribute or bracket lookup, or a numeric list index.
type segment struct {
	name    string
	index   int
	isIndex bool
}

func (s segment) String() string {
	if s.isIndex {
		return fmt.Sprintf("[%d]", s.index)
	}
	return s.name
}

// parsePath parses expressions of the form
//
//	namespace.ident['quoted key'][0].ident
//
// into a segment list. This is deliberately a path grammar, not a general
// expression language: everything an action needs from the run is reachable
// by navigation.
func parsePath(expression string) ([]segment, error) {
	if expression == "" {
		return nil, syntaxErr("empty expression")
	}
	var segments []segment
	rest := expression
	expectDot := false
	for len(rest) > 0 {
		switch {
		case rest[0] == '.':
			if !expectDot {
				return nil, syntaxErr("unexpected %q in expression %q", ".", expression)
			}
			expectDot = false
			rest = rest[1:]
		case rest[0] == '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, syntaxErr("unterminated index in expression %q", expression)
			}
			inner := strings.TrimSpace(rest[1:end])
			seg, err := parseIndex(inner, expression)
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
			expectDot = true
			rest = rest[end+1:]
		default:
			if expectDot {
				return nil, syntaxErr("expected %q or %q in expression %q", ".", "[", expression)
			}
			end := 0
			for end < len(rest) && rest[end] != '.' && rest[end] != '[' {
				end++
			}
			name := strings.TrimSpace(rest[:end])
			if name == "" {
				return nil, syntaxErr("empty path segment in expression %q", expression)
			}
			segments = append(segments, segment{name: name})
			expectDot = true
			rest = rest[end:]
		}
	}
	if len(segments) == 0 {
		return nil, syntaxErr("empty expression")
	}
	if segments[0].isIndex {
		return nil, syntaxErr("expression %q must start with a namespace", expression)
	}
	return segments, nil
}

func parseIndex(inner, expression string) (segment, error) {
	if inner == "" {
		return segment{}, syntaxErr("empty index in expression %q", expression)
	}
	if inner[0] == '\'' || inner[0] == '"' {
		if len(inner) < 2 || inner[len(inner)-1] != inner[0] {
			return segment{}, syntaxErr("unterminated string index in expression %q", expression)
		}
		return segment{name: inner[1 : len(inner)-1]}, nil
	}
	idx, err := strconv.Atoi(inner)
	if err != nil {
		return segment{}, syntaxErr("invalid index %q in expression %q", inner, expression)
	}
	return segment{index: idx, isIndex: true}, nil
}
