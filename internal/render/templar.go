package render

import (
	"fmt"
	"os"

	"github.com/vk/grana/internal/model"
)

// maxRenderDepth bounds nested context templates; a context key referring
// back to itself trips this instead of hanging the run.
const maxRenderDepth = 64

// OutcomeSource is the read side of the ledger. Has reports whether the
// action has a record at all, which for a run-scoped ledger means the
// action exists in the graph.
type OutcomeSource interface {
	Get(action, key string) (string, bool)
	Has(action string) bool
}

// Templar renders template expressions against one frozen view of the run:
// the outcome ledger, an action-status snapshot, and the workflow context.
// A Templar is built per action, right before dispatch, when all of that
// action's dependencies are terminal; referenced values are therefore final.
type Templar struct {
	outcomes OutcomeSource
	statuses map[string]model.Status
	context  map[string]any
	strict   bool
	depth    int
}

// New builds a Templar. When strict is set, referencing an absent outcome
// key fails the render; otherwise it yields an empty string.
func New(outcomes OutcomeSource, statuses map[string]model.Status, context map[string]any, strict bool) *Templar {
	return &Templar{
		outcomes: outcomes,
		statuses: statuses,
		context:  context,
		strict:   strict,
	}
}

// Render substitutes all @{ ... } occurrences in a single string.
func (t *Templar) Render(value string) (string, error) {
	if !Renderable(value) {
		return value, nil
	}
	t.depth++
	defer func() { t.depth-- }()
	if t.depth >= maxRenderDepth {
		return "", &Error{Kind: KindRecursionDepth, Detail: fmt.Sprintf("recursion depth exceeded: %d", t.depth)}
	}
	lexemes, err := lex(value)
	if err != nil {
		return "", err
	}
	var out []byte
	for _, lx := range lexemes {
		chunk := lx.value
		if lx.kind == lexExpression {
			if chunk, err = t.eval(chunk); err != nil {
				return "", err
			}
		}
		out = append(out, chunk...)
	}
	return string(out), nil
}

// RenderAll renders every string leaf of a raw parameter payload, walking
// nested maps and lists. The input is not mutated.
func (t *Templar) RenderAll(params map[string]any) (map[string]any, error) {
	rendered, err := t.renderValue(params)
	if err != nil {
		return nil, err
	}
	return rendered.(map[string]any), nil
}

func (t *Templar) renderValue(value any) (any, error) {
	switch typed := value.(type) {
	case string:
		return t.Render(typed)
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			rendered, err := t.renderValue(v)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			rendered, err := t.renderValue(v)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return value, nil
	}
}

func (t *Templar) eval(expression string) (string, error) {
	segments, err := parsePath(expression)
	if err != nil {
		return "", err
	}
	switch segments[0].name {
	case "outcomes", "out":
		return t.evalOutcome(expression, segments[1:])
	case "status":
		return t.evalStatus(expression, segments[1:])
	case "context", "ctx":
		return t.evalContext(expression, segments[1:])
	case "environment", "env":
		return t.evalEnvironment(expression, segments[1:])
	}
	return "", &Error{Kind: KindUnknownNamespace, Detail: fmt.Sprintf("name %q is not defined", segments[0].name)}
}

func (t *Templar) evalOutcome(expression string, path []segment) (string, error) {
	if len(path) != 2 || path[0].isIndex || path[1].isIndex {
		return "", syntaxErr("outcome reference must be outcomes.<action>.<key>: %q", expression)
	}
	action, key := path[0].name, path[1].name
	if !t.outcomes.Has(action) {
		return "", &Error{Kind: KindUnknownAction, Detail: fmt.Sprintf("action not found: %q", action)}
	}
	value, ok := t.outcomes.Get(action, key)
	if !ok {
		if t.strict {
			return "", &Error{Kind: KindMissingOutcome, Detail: fmt.Sprintf("outcome key %q of action %q not found", key, action)}
		}
		return "", nil
	}
	return value, nil
}

func (t *Templar) evalStatus(expression string, path []segment) (string, error) {
	if len(path) != 1 || path[0].isIndex {
		return "", syntaxErr("status reference must be status.<action>: %q", expression)
	}
	status, known := t.statuses[path[0].name]
	if !known {
		return "", &Error{Kind: KindUnknownAction, Detail: fmt.Sprintf("action not found: %q", path[0].name)}
	}
	return string(status), nil
}

func (t *Templar) evalContext(expression string, path []segment) (string, error) {
	if len(path) == 0 {
		return "", syntaxErr("context reference must name a key: %q", expression)
	}
	node := any(t.context)
	for _, seg := range path {
		next, err := navigate(node, seg)
		if err != nil {
			return "", err
		}
		node = next
	}
	return t.stringify(node)
}

func (t *Templar) evalEnvironment(expression string, path []segment) (string, error) {
	if len(path) != 1 || path[0].isIndex {
		return "", syntaxErr("environment reference must be env.<NAME>: %q", expression)
	}
	// Missing environment variables always render as empty strings.
	return os.Getenv(path[0].name), nil
}

func navigate(node any, seg segment) (any, error) {
	switch typed := node.(type) {
	case map[string]any:
		if seg.isIndex {
			return nil, &Error{Kind: KindUnknownContextKey, Detail: fmt.Sprintf("context key not found: %s", seg)}
		}
		value, ok := typed[seg.name]
		if !ok {
			return nil, &Error{Kind: KindUnknownContextKey, Detail: fmt.Sprintf("context key not found: %q", seg.name)}
		}
		return value, nil
	case []any:
		if !seg.isIndex {
			return nil, &Error{Kind: KindUnknownContextKey, Detail: fmt.Sprintf("context list requires a numeric index, got %q", seg.name)}
		}
		if seg.index < 0 || seg.index >= len(typed) {
			return nil, &Error{Kind: KindUnknownContextKey, Detail: fmt.Sprintf("context index out of range: %d", seg.index)}
		}
		return typed[seg.index], nil
	default:
		return nil, &Error{Kind: KindUnknownContextKey, Detail: fmt.Sprintf("context value has no member %s", seg)}
	}
}

// stringify turns a resolved context node into its final textual form,
// recursively rendering string leaves so context keys may refer to outcomes
// or to each other.
func (t *Templar) stringify(node any) (string, error) {
	switch typed := node.(type) {
	case string:
		return t.Render(typed)
	case map[string]any, []any:
		rendered, err := t.renderValue(typed)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%v", rendered), nil
	case nil:
		return "", nil
	default:
		return fmt.Sprintf("%v", typed), nil
	}
}
