package bundled

import (
	"context"
	"strings"

	"github.com/vk/grana/internal/action"
)

// Echo prints its message parameter line by line.
type Echo struct{}

// Run implements action.Runner.
func (Echo) Run(_ context.Context, inv *action.Invocation) error {
	message, ok := inv.StringParam("message")
	if !ok {
		return action.Failf("echo: 'message' parameter is required")
	}
	for _, line := range strings.Split(message, "\n") {
		inv.Emit.Say(line)
	}
	return nil
}
