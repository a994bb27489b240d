package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/grana/internal/model"
)

// Workflow is the loaded, not-yet-validated description of a run.
type Workflow struct {
	Actions []*model.Action
	// Context holds workflow-level values referenced by templates.
	Context map[string]any
	// Strategy optionally overrides the configured strategy name from the
	// workflow file's configuration block.
	Strategy string
}

// Loader parses one source format.
type Loader interface {
	// Load reads a workflow from a file.
	Load(path string) (*Workflow, error)
	// Loads reads a workflow from raw bytes (stdin support).
	Loads(data []byte) (*Workflow, error)
}

// LoadError reports a malformed workflow description, with the stack of
// source files that led to it when imports are involved.
type LoadError struct {
	Message string
	Stack   []string
}

func (e *LoadError) Error() string {
	if len(e.Stack) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s\n  sources stack: %s", e.Message, strings.Join(e.Stack, " -> "))
}

// SourceError reports an unusable workflow source location.
type SourceError struct {
	Message string
}

func (e *SourceError) Error() string {
	return e.Message
}

// ForSource returns the loader responsible for the given path, chosen by
// suffix.
func ForSource(path string) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return NewYAML(), nil
	case ".hcl":
		return NewHCL(), nil
	}
	return nil, &SourceError{Message: fmt.Sprintf("unrecognized workflow source: %s", path)}
}

// candidateFileNames are probed, in order, when no workflow source is
// given explicitly.
var candidateFileNames = []string{"grana.yml", "grana.yaml", "grana.hcl"}

// Detect locates the workflow source within a context directory. Exactly
// one candidate file must exist.
func Detect(dir string, exists func(path string) bool) (string, error) {
	located := ""
	for _, name := range candidateFileNames {
		candidate := filepath.Join(dir, name)
		if !exists(candidate) {
			continue
		}
		if located != "" {
			return "", &SourceError{Message: fmt.Sprintf("multiple workflow sources detected in %s", dir)}
		}
		located = candidate
	}
	if located == "" {
		return "", &SourceError{Message: fmt.Sprintf("no workflow source detected in %s", dir)}
	}
	return located, nil
}
