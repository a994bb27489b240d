package action

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// serviceMessageRe matches one service message per line, with optional
// preceding content. The payload is a space-separated expression whose
// arguments are base64-encoded.
var serviceMessageRe = regexp.MustCompile(`^(.*?)##grana\[([A-Za-z0-9+/=\- ]+)]##$`)

// Scanner filters an action's stdout stream for ##grana[...]## service
// messages, turning them into outcome yields and skip requests instead of
// display output. Stderr is never scanned.
type Scanner struct {
	emit *Emission
}

// NewScanner wraps an emission handle.
func NewScanner(emit *Emission) *Scanner {
	return &Scanner{emit: emit}
}

// Feed processes one stdout line.
func (s *Scanner) Feed(line string) {
	// A cheaper check than the regexp for ordinary output.
	if !strings.HasSuffix(line, "]##") {
		s.emit.Say(line)
		return
	}
	match := serviceMessageRe.FindStringSubmatch(line)
	if match == nil {
		s.emit.Say(line)
		return
	}
	if prefix := match[1]; prefix != "" {
		s.emit.Say(prefix)
	}
	if !s.processExpression(match[2]) {
		// Unparseable service payload: pass the raw line through so the
		// output is not silently lost.
		s.emit.Say(line)
	}
}

// FeedErr processes one stderr line.
func (s *Scanner) FeedErr(line string) {
	s.emit.SayErr(line)
}

func (s *Scanner) processExpression(expression string) bool {
	parts := strings.Fields(expression)
	if len(parts) == 0 {
		return false
	}
	switch parts[0] {
	case "skip":
		s.emit.RequestSkip()
		return true
	case "yield-outcome-b64":
		if len(parts) != 3 {
			return false
		}
		key, err := base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			return false
		}
		value, err := base64.StdEncoding.DecodeString(parts[2])
		if err != nil {
			return false
		}
		s.emit.YieldOutcome(string(key), string(value))
		return true
	}
	return false
}
