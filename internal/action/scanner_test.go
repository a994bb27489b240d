package action

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedLine struct {
	line   string
	stderr bool
}

// captureSink records everything an emission forwards.
type captureSink struct {
	lines []capturedLine
}

func (c *captureSink) OnActionMessage(action, line string, stderr bool) {
	c.lines = append(c.lines, capturedLine{line, stderr})
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestScanner_PlainLinesPassThrough(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	s := NewScanner(NewEmission("compile", sink))

	s.Feed("building...")
	s.FeedErr("warning: deprecated flag")

	require.Len(t, sink.lines, 2)
	assert.Equal(t, capturedLine{"building...", false}, sink.lines[0])
	assert.Equal(t, capturedLine{"warning: deprecated flag", true}, sink.lines[1])
}

func TestScanner_YieldOutcome(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	emit := NewEmission("compile", sink)
	s := NewScanner(emit)

	s.Feed(fmt.Sprintf("##grana[yield-outcome-b64 %s %s]##", b64("artifact"), b64("app.tar.gz")))

	assert.Empty(t, sink.lines, "service messages must not reach the display")
	assert.Equal(t, map[string]string{"artifact": "app.tar.gz"}, emit.Outcomes())
}

func TestScanner_YieldOutcomeWithPrefix(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	emit := NewEmission("compile", sink)
	s := NewScanner(emit)

	// Content before the marker on the same line is still real output.
	s.Feed(fmt.Sprintf("done ##grana[yield-outcome-b64 %s %s]##", b64("k"), b64("v")))

	require.Len(t, sink.lines, 1)
	assert.Equal(t, "done ", sink.lines[0].line)
	assert.Equal(t, map[string]string{"k": "v"}, emit.Outcomes())
}

func TestScanner_Skip(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	emit := NewEmission("compile", sink)
	s := NewScanner(emit)

	assert.False(t, emit.SkipRequested())
	s.Feed("##grana[skip]##")
	assert.True(t, emit.SkipRequested())
	assert.Empty(t, sink.lines)
}

func TestScanner_StderrNeverScanned(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	emit := NewEmission("compile", sink)
	s := NewScanner(emit)

	s.FeedErr("##grana[skip]##")

	assert.False(t, emit.SkipRequested())
	require.Len(t, sink.lines, 1)
	assert.True(t, sink.lines[0].stderr)
}

func TestScanner_MalformedPayloadPassesThrough(t *testing.T) {
	t.Parallel()

	for _, line := range []string{
		"##grana[yield-outcome-b64 onlyonearg]##",
		"##grana[yield-outcome-b64 !!! ???]##",
		"##grana[frobnicate]##",
		"##grana[]##",
	} {
		sink := &captureSink{}
		emit := NewEmission("compile", sink)
		NewScanner(emit).Feed(line)

		require.Len(t, sink.lines, 1, "line %q", line)
		assert.Equal(t, line, sink.lines[0].line)
		assert.Empty(t, emit.Outcomes())
	}
}

func TestEmission_LaterYieldWins(t *testing.T) {
	t.Parallel()

	emit := NewEmission("compile", nil)
	emit.YieldOutcome("key", "first")
	emit.YieldOutcome("key", "second")

	assert.Equal(t, map[string]string{"key": "second"}, emit.Outcomes())
}

func TestEmission_NilSinkDiscards(t *testing.T) {
	t.Parallel()

	emit := NewEmission("compile", nil)
	emit.Say("into the void")
	emit.SayErr("also discarded")
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	require.NoError(t, r.Register("shell", func() Runner { return nil }))
	require.Error(t, r.Register("shell", func() Runner { return nil }), "duplicate kinds are rejected")

	_, ok := r.Lookup("shell")
	assert.True(t, ok)
	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	// Override shadows silently, matching dynamically loaded definitions.
	r.Override("shell", func() Runner { return nil })
	r.Override("custom", func() Runner { return nil })

	assert.Equal(t, []string{"custom", "shell"}, r.Names())
}
