package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/vk/grana/internal/model"
	"github.com/vk/grana/internal/strategy"
)

// allRootKeys are the recognized top-level workflow keys.
var allRootKeys = map[string]bool{
	"actions":       true,
	"context":       true,
	"configuration": true,
	"miscellaneous": true,
}

// yamlLoader is the default workflow loader. A single instance accumulates
// state across recursive !import processing and is not reusable.
type yamlLoader struct {
	actions       []*model.Action
	names         map[string]bool
	typeCounters  map[string]int
	context       map[string]any
	strategyName  string
	rawStack      []string
	resolvedStack []string
}

// NewYAML returns a fresh YAML workflow loader.
func NewYAML() Loader {
	return &yamlLoader{
		names:        make(map[string]bool),
		typeCounters: make(map[string]int),
		context:      make(map[string]any),
	}
}

func (l *yamlLoader) Load(path string) (*Workflow, error) {
	if err := l.loadFile(path, allRootKeys); err != nil {
		return nil, err
	}
	return l.workflow(), nil
}

func (l *yamlLoader) Loads(data []byte) (*Workflow, error) {
	if err := l.parse(data, allRootKeys); err != nil {
		return nil, err
	}
	return l.workflow(), nil
}

func (l *yamlLoader) workflow() *Workflow {
	return &Workflow{
		Actions:  l.actions,
		Context:  l.context,
		Strategy: l.strategyName,
	}
}

// throw raises a LoadError carrying the current sources stack.
func (l *yamlLoader) throw(format string, args ...any) error {
	stack := make([]string, len(l.rawStack))
	copy(stack, l.rawStack)
	return &LoadError{Message: fmt.Sprintf(format, args...), Stack: stack}
}

// contextDir is the directory of the file currently being parsed, used to
// resolve relative import paths.
func (l *yamlLoader) contextDir() string {
	if len(l.resolvedStack) == 0 {
		return "."
	}
	return filepath.Dir(l.resolvedStack[len(l.resolvedStack)-1])
}

// loadFile reads one source file, guarding against cyclic imports. The
// process set filters which root keys of this particular file take effect.
func (l *yamlLoader) loadFile(source string, process map[string]bool) error {
	path := source
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.contextDir(), path)
	}
	resolved, err := filepath.Abs(path)
	if err != nil {
		return l.throw("cannot resolve workflow file %q: %v", source, err)
	}
	for _, seen := range l.resolvedStack {
		if seen == resolved {
			return l.throw("cyclic load")
		}
	}
	l.rawStack = append(l.rawStack, source)
	l.resolvedStack = append(l.resolvedStack, resolved)
	defer func() {
		l.rawStack = l.rawStack[:len(l.rawStack)-1]
		l.resolvedStack = l.resolvedStack[:len(l.resolvedStack)-1]
	}()
	data, err := os.ReadFile(resolved)
	if err != nil {
		return l.throw("workflow file not found: %s", resolved)
	}
	return l.parse(data, process)
}

func (l *yamlLoader) parse(data []byte, process map[string]bool) error {
	var document yaml.Node
	if err := yaml.Unmarshal(data, &document); err != nil {
		return l.throw("invalid YAML: %v", err)
	}
	if document.Kind != yaml.DocumentNode || len(document.Content) == 0 {
		return l.throw("empty workflow document")
	}
	root := document.Content[0]
	if root.Kind != yaml.MappingNode {
		return l.throw("unknown workflow structure: the root node should be a mapping")
	}
	var unrecognized []string
	for i := 0; i+1 < len(root.Content); i += 2 {
		if key := root.Content[i].Value; !allRootKeys[key] {
			unrecognized = append(unrecognized, key)
		}
	}
	if len(unrecognized) > 0 {
		sort.Strings(unrecognized)
		return l.throw("unrecognized root keys: %v", unrecognized)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		if !process[key] {
			continue
		}
		var err error
		switch key {
		case "actions":
			err = l.parseActions(value)
		case "context":
			err = l.parseContext(value)
		case "configuration":
			err = l.parseConfiguration(value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *yamlLoader) parseActions(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return l.throw("'actions' contents should be a list")
	}
	for _, item := range node.Content {
		switch {
		case item.Tag == "!import":
			if item.Kind != yaml.ScalarNode || item.Value == "" {
				return l.throw("empty import")
			}
			if err := l.loadFile(item.Value, map[string]bool{"actions": true}); err != nil {
				return err
			}
		case item.Kind == yaml.MappingNode:
			var raw map[string]any
			if err := item.Decode(&raw); err != nil {
				return l.throw("invalid action node: %v", err)
			}
			act, err := l.buildAction(raw)
			if err != nil {
				return err
			}
			if l.names[act.Name] {
				return l.throw("action declared twice: %q", act.Name)
			}
			l.names[act.Name] = true
			l.actions = append(l.actions, act)
		default:
			return l.throw("unrecognized action node (expected a mapping or an !import)")
		}
	}
	return nil
}

func (l *yamlLoader) parseContext(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		return l.mergeContext(node)
	case yaml.SequenceNode:
		for num, item := range node.Content {
			switch {
			case item.Tag == "!import":
				if item.Kind != yaml.ScalarNode || item.Value == "" {
					return l.throw("empty import")
				}
				if err := l.loadFile(item.Value, map[string]bool{"context": true}); err != nil {
					return err
				}
			case item.Kind == yaml.MappingNode:
				if err := l.mergeContext(item); err != nil {
					return err
				}
			default:
				return l.throw("context item #%d is not a mapping nor an '!import'", num+1)
			}
		}
		return nil
	}
	return l.throw("'context' contents should be a mapping or a list")
}

func (l *yamlLoader) mergeContext(node *yaml.Node) error {
	var data map[string]any
	if err := node.Decode(&data); err != nil {
		return l.throw("invalid context node: %v", err)
	}
	for key, value := range data {
		l.context[key] = value
	}
	return nil
}

func (l *yamlLoader) parseConfiguration(node *yaml.Node) error {
	var data map[string]any
	if err := node.Decode(&data); err != nil {
		return l.throw("invalid configuration node: %v", err)
	}
	for key, value := range data {
		switch key {
		case "strategy":
			name, ok := value.(string)
			if !ok {
				return l.throw("configuration 'strategy' should be a string")
			}
			if !strategy.Known(name) {
				return l.throw("unexpected strategy: %q (known: %v)", name, strategy.Names())
			}
			l.strategyName = name
		default:
			return l.throw("unrecognized configuration key: %q", key)
		}
	}
	return nil
}

// buildAction shapes one action mapping into a descriptor. Reserved keys
// are interpreted; everything else becomes the raw parameter payload.
func (l *yamlLoader) buildAction(raw map[string]any) (*model.Action, error) {
	typeValue, ok := raw["type"]
	if !ok {
		return nil, l.throw("'type' not specified for action")
	}
	actionType, ok := typeValue.(string)
	if !ok || actionType == "" {
		return nil, l.throw("action 'type' should be a non-empty string")
	}
	delete(raw, "type")

	name := fmt.Sprintf("%s-%d", actionType, l.typeCounters[actionType])
	l.typeCounters[actionType]++
	if nameValue, given := raw["name"]; given {
		name, ok = nameValue.(string)
		if !ok || name == "" {
			return nil, l.throw("action 'name' should be a non-empty string")
		}
		delete(raw, "name")
	}

	description := ""
	if value, given := raw["description"]; given {
		if description, ok = value.(string); !ok {
			return nil, l.throw("action %q: 'description' should be a string", name)
		}
		delete(raw, "description")
	}

	expects, err := l.buildDependencies(name, raw)
	if err != nil {
		return nil, err
	}

	selectable := true
	if value, given := raw["selectable"]; given {
		if selectable, ok = value.(bool); !ok {
			return nil, l.throw("action %q: 'selectable' should be a boolean", name)
		}
		delete(raw, "selectable")
	}

	severity := model.SeverityNormal
	if value, given := raw["severity"]; given {
		text, ok := value.(string)
		if !ok {
			return nil, l.throw("action %q: 'severity' should be a string", name)
		}
		if severity, ok = model.ParseSeverity(text); !ok {
			return nil, l.throw("action %q: invalid severity %q (expected one of: low, normal)", name, text)
		}
		delete(raw, "severity")
	}

	var outcomes []string
	if value, given := raw["outcomes"]; given {
		list, ok := value.([]any)
		if !ok {
			return nil, l.throw("action %q: 'outcomes' should be a list of strings", name)
		}
		for _, item := range list {
			key, ok := item.(string)
			if !ok {
				return nil, l.throw("action %q: 'outcomes' should be a list of strings", name)
			}
			outcomes = append(outcomes, key)
		}
		delete(raw, "outcomes")
	}

	return &model.Action{
		Name:        name,
		Type:        actionType,
		Description: description,
		Params:      raw,
		Expects:     expects,
		Outcomes:    outcomes,
		Selectable:  selectable,
		Severity:    severity,
	}, nil
}

// buildDependencies interprets the "expects" key: a single name, or a list
// whose items are names or {name, strict, external} mappings.
func (l *yamlLoader) buildDependencies(action string, raw map[string]any) (map[string]model.Dependency, error) {
	value, given := raw["expects"]
	if !given {
		return nil, nil
	}
	delete(raw, "expects")
	var items []any
	switch typed := value.(type) {
	case string:
		items = []any{typed}
	case []any:
		items = typed
	default:
		return nil, l.throw("action %q: 'expects' should be a string or a list", action)
	}
	expects := make(map[string]model.Dependency, len(items))
	for _, item := range items {
		switch node := item.(type) {
		case string:
			if node == "" {
				return nil, l.throw("action %q: empty dependency name", action)
			}
			expects[node] = model.Dependency{}
		case map[string]any:
			name, dep, err := l.buildDependencyNode(action, node)
			if err != nil {
				return nil, err
			}
			expects[name] = dep
		default:
			return nil, l.throw("action %q: unrecognized dependency node (expected a string or a mapping)", action)
		}
	}
	return expects, nil
}

func (l *yamlLoader) buildDependencyNode(action string, node map[string]any) (string, model.Dependency, error) {
	var unexpected []string
	for key := range node {
		switch key {
		case "name", "strict", "external":
		default:
			unexpected = append(unexpected, key)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return "", model.Dependency{}, l.throw("action %q: unrecognized dependency node keys: %v", action, unexpected)
	}
	nameValue, given := node["name"]
	if !given {
		return "", model.Dependency{}, l.throw("action %q: name not specified for a dependency", action)
	}
	name, ok := nameValue.(string)
	if !ok || name == "" {
		return "", model.Dependency{}, l.throw("action %q: dependency name should be a non-empty string", action)
	}
	dep := model.Dependency{}
	if value, given := node["strict"]; given {
		if dep.Strict, ok = value.(bool); !ok {
			return "", model.Dependency{}, l.throw("action %q: dependency 'strict' should be a boolean", action)
		}
	}
	if value, given := node["external"]; given {
		if dep.External, ok = value.(bool); !ok {
			return "", model.Dependency{}, l.throw("action %q: dependency 'external' should be a boolean", action)
		}
	}
	return name, dep, nil
}
