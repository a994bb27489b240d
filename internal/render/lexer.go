package render

// Lexeme kinds emitted by the template lexer.
const (
	lexText = iota
	lexExpression
)

type lexeme struct {
	kind  int
	value string
}

// Renderable is a cheap check for strings that may contain template
// expressions, used to avoid lexing plain values.
func Renderable(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '@' && s[i+1] == '{' {
			return true
		}
	}
	return false
}

// lex splits a template string into raw text and expression chunks. Each
// expression starts with an "@{" pair; doubling the "@" down disengages
// expression scanning, so "@@{" stays verbatim in the output. Expressions
// run until the matching close brace, with quoted strings and nested braces
// respected.
func lex(data string) ([]lexeme, error) {
	var out []lexeme
	armed := false
	textStart := 0
	i := 0
	for i < len(data) {
		symbol := data[i]
		i++
		if symbol == '@' {
			armed = !armed
			continue
		}
		if symbol == '{' && armed {
			if text := data[textStart : i-2]; text != "" {
				out = append(out, lexeme{lexText, text})
			}
			length, expression, err := readExpression(data[i:])
			if err != nil {
				return nil, err
			}
			out = append(out, lexeme{lexExpression, expression})
			i += length + 1 // consume the closing brace too
			textStart = i
		}
		armed = false
	}
	if text := data[textStart:]; text != "" {
		out = append(out, lexeme{lexText, text})
	}
	return out, nil
}

// readExpression scans up to the unbalanced closing brace and returns the
// number of source bytes consumed (excluding the brace) together with the
// trimmed expression body.
func readExpression(data string) (int, string, error) {
	depth := 0
	var quote byte
	for i := 0; i < len(data); i++ {
		c := data[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return i, trimSpace(data[:i]), nil
			}
		}
	}
	return 0, "", syntaxErr("unterminated expression: %q", "@{"+data)
}

func trimSpace(s string) string {
	start := 0
	for start < len(s) && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n') {
		start++
	}
	end := len(s)
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n') {
		end--
	}
	return s[start:end]
}
