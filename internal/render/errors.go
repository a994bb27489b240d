package render

import "fmt"

// ErrorKind discriminates rendering failures.
type ErrorKind string

const (
	// KindMissingOutcome means a referenced outcome key is absent under the
	// strict policy.
	KindMissingOutcome ErrorKind = "MissingOutcome"
	// KindUnknownAction means an outcomes or status reference names an
	// action outside the workflow.
	KindUnknownAction ErrorKind = "UnknownAction"
	// KindUnknownContextKey means a context path does not resolve.
	KindUnknownContextKey ErrorKind = "UnknownContextKey"
	// KindUnknownNamespace means the expression's first segment is not a
	// recognized namespace.
	KindUnknownNamespace ErrorKind = "UnknownNamespace"
	// KindSyntax means the expression or the surrounding template is
	// malformed.
	KindSyntax ErrorKind = "Syntax"
	// KindRecursionDepth means nested context templates exceeded the
	// rendering depth limit.
	KindRecursionDepth ErrorKind = "RecursionDepth"
)

// Error is local to one action: the engine treats it as that action's
// failure for propagation purposes.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("rendering failed (%s): %s", string(e.Kind), e.Detail)
}

func syntaxErr(format string, args ...any) *Error {
	return &Error{Kind: KindSyntax, Detail: fmt.Sprintf(format, args...)}
}
