package loader

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/grana/internal/model"
	"github.com/vk/grana/internal/strategy"
)

// hclLoader parses workflows written in HCL. Unlike the YAML dialect it has
// no import mechanism; one file describes the whole workflow.
type hclLoader struct {
	typeCounters map[string]int
}

// NewHCL returns a workflow loader for the HCL dialect.
func NewHCL() Loader {
	return &hclLoader{typeCounters: make(map[string]int)}
}

var workflowBodySchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "action", LabelNames: []string{"name"}},
		{Type: "context"},
		{Type: "configuration"},
	},
}

var actionBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type", Required: true},
		{Name: "description"},
		{Name: "expects"},
		{Name: "severity"},
		{Name: "selectable"},
		{Name: "outcomes"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "params"},
		{Type: "expect", LabelNames: []string{"name"}},
	},
}

func (l *hclLoader) Load(path string) (*Workflow, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, &LoadError{Message: diags.Error(), Stack: []string{path}}
	}
	return l.build(file, path)
}

func (l *hclLoader) Loads(data []byte) (*Workflow, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, "workflow.hcl")
	if diags.HasErrors() {
		return nil, &LoadError{Message: diags.Error()}
	}
	return l.build(file, "workflow.hcl")
}

func (l *hclLoader) build(file *hcl.File, source string) (*Workflow, error) {
	throw := func(format string, args ...any) error {
		return &LoadError{Message: fmt.Sprintf(format, args...), Stack: []string{source}}
	}
	content, diags := file.Body.Content(workflowBodySchema)
	if diags.HasErrors() {
		return nil, throw("%s", diags.Error())
	}
	wf := &Workflow{Context: make(map[string]any)}
	names := make(map[string]bool)
	for _, block := range content.Blocks {
		switch block.Type {
		case "action":
			act, err := l.buildAction(block, throw)
			if err != nil {
				return nil, err
			}
			if names[act.Name] {
				return nil, throw("action declared twice: %q", act.Name)
			}
			names[act.Name] = true
			wf.Actions = append(wf.Actions, act)
		case "context":
			values, err := decodeAttributes(block.Body, throw)
			if err != nil {
				return nil, err
			}
			for key, value := range values {
				wf.Context[key] = value
			}
		case "configuration":
			if err := l.buildConfiguration(block, wf, throw); err != nil {
				return nil, err
			}
		}
	}
	return wf, nil
}

func (l *hclLoader) buildConfiguration(block *hcl.Block, wf *Workflow, throw func(string, ...any) error) error {
	values, err := decodeAttributes(block.Body, throw)
	if err != nil {
		return err
	}
	for key, value := range values {
		switch key {
		case "strategy":
			name, ok := value.(string)
			if !ok {
				return throw("configuration 'strategy' should be a string")
			}
			if !strategy.Known(name) {
				return throw("unexpected strategy: %q (known: %v)", name, strategy.Names())
			}
			wf.Strategy = name
		default:
			return throw("unrecognized configuration key: %q", key)
		}
	}
	return nil
}

func (l *hclLoader) buildAction(block *hcl.Block, throw func(string, ...any) error) (*model.Action, error) {
	content, diags := block.Body.Content(actionBodySchema)
	if diags.HasErrors() {
		return nil, throw("%s", diags.Error())
	}

	var actionType string
	if diags := gohcl.DecodeExpression(content.Attributes["type"].Expr, nil, &actionType); diags.HasErrors() {
		return nil, throw("%s", diags.Error())
	}
	if actionType == "" {
		return nil, throw("action 'type' should be a non-empty string")
	}

	name := block.Labels[0]
	if name == "" {
		name = fmt.Sprintf("%s-%d", actionType, l.typeCounters[actionType])
	}
	l.typeCounters[actionType]++

	act := &model.Action{
		Name:       name,
		Type:       actionType,
		Expects:    make(map[string]model.Dependency),
		Selectable: true,
		Severity:   model.SeverityNormal,
	}

	if attr, given := content.Attributes["description"]; given {
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &act.Description); diags.HasErrors() {
			return nil, throw("action %q: %s", name, diags.Error())
		}
	}
	if attr, given := content.Attributes["selectable"]; given {
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &act.Selectable); diags.HasErrors() {
			return nil, throw("action %q: %s", name, diags.Error())
		}
	}
	if attr, given := content.Attributes["severity"]; given {
		var text string
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &text); diags.HasErrors() {
			return nil, throw("action %q: %s", name, diags.Error())
		}
		severity, ok := model.ParseSeverity(text)
		if !ok {
			return nil, throw("action %q: invalid severity %q (expected one of: low, normal)", name, text)
		}
		act.Severity = severity
	}
	if attr, given := content.Attributes["outcomes"]; given {
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &act.Outcomes); diags.HasErrors() {
			return nil, throw("action %q: %s", name, diags.Error())
		}
	}
	if attr, given := content.Attributes["expects"]; given {
		var deps []string
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &deps); diags.HasErrors() {
			var single string
			if diags := gohcl.DecodeExpression(attr.Expr, nil, &single); diags.HasErrors() {
				return nil, throw("action %q: 'expects' should be a string or a list of strings", name)
			}
			deps = []string{single}
		}
		for _, dep := range deps {
			act.Expects[dep] = model.Dependency{}
		}
	}

	for _, inner := range content.Blocks {
		switch inner.Type {
		case "params":
			params, err := decodeAttributes(inner.Body, throw)
			if err != nil {
				return nil, err
			}
			act.Params = params
		case "expect":
			var spec struct {
				Strict   bool `hcl:"strict,optional"`
				External bool `hcl:"external,optional"`
			}
			if diags := gohcl.DecodeBody(inner.Body, nil, &spec); diags.HasErrors() {
				return nil, throw("action %q: %s", name, diags.Error())
			}
			act.Expects[inner.Labels[0]] = model.Dependency{Strict: spec.Strict, External: spec.External}
		}
	}
	if act.Params == nil {
		act.Params = make(map[string]any)
	}
	return act, nil
}

// decodeAttributes evaluates every attribute of a body into plain Go values.
func decodeAttributes(body hcl.Body, throw func(string, ...any) error) (map[string]any, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, throw("%s", diags.Error())
	}
	values := make(map[string]any, len(attrs))
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value, diags := attrs[key].Expr.Value(nil)
		if diags.HasErrors() {
			return nil, throw("attribute %q: %s", key, diags.Error())
		}
		converted, err := ctyToGo(value)
		if err != nil {
			return nil, throw("attribute %q: %v", key, err)
		}
		values[key] = converted
	}
	return values, nil
}

// ctyToGo lowers an evaluated cty value into the generic representation the
// rest of the pipeline works with.
func ctyToGo(value cty.Value) (any, error) {
	if value.IsNull() {
		return nil, nil
	}
	ty := value.Type()
	switch {
	case ty == cty.String:
		return value.AsString(), nil
	case ty == cty.Bool:
		return value.True(), nil
	case ty == cty.Number:
		f := value.AsBigFloat()
		if f.IsInt() {
			i, _ := f.Int64()
			return int(i), nil
		}
		v, _ := f.Float64()
		return v, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var list []any
		for it := value.ElementIterator(); it.Next(); {
			_, element := it.Element()
			converted, err := ctyToGo(element)
			if err != nil {
				return nil, err
			}
			list = append(list, converted)
		}
		return list, nil
	case ty.IsObjectType() || ty.IsMapType():
		values := make(map[string]any)
		for it := value.ElementIterator(); it.Next(); {
			key, element := it.Element()
			converted, err := ctyToGo(element)
			if err != nil {
				return nil, err
			}
			values[key.AsString()] = converted
		}
		return values, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}
