// Package plugin discovers extra runner kinds from directories of
// interpreted Go source files. Each .go file defines one kind, named after
// the file stem, and must declare
//
//	func Run(ctx context.Context, params map[string]string) (map[string]string, error)
//
// The returned map becomes the action's yielded outcomes. Discovered kinds
// shadow bundled kinds of the same name.
package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/vk/grana/internal/action"
	"github.com/vk/grana/internal/ctxlog"
)

const entrypointName = "Run"

// LoadDir evaluates every .go file under dir and registers the resulting
// runner kinds. A missing directory is not an error.
func LoadDir(ctx context.Context, registry *action.Registry, dir string) error {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("plugin: read %s: %w", trimmed, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".go" {
			continue
		}
		path := filepath.Join(trimmed, entry.Name())
		kind := strings.TrimSuffix(entry.Name(), ".go")
		runner, err := loadFile(path)
		if err != nil {
			return err
		}
		ctxlog.FromContext(ctx).Debug("registering action definition", "kind", kind, "path", path)
		registry.Override(kind, func() action.Runner { return runner })
	}
	return nil
}

func loadFile(path string) (action.Runner, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("plugin: %s is empty", path)
	}
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("plugin: %s: %w", path, err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("plugin: interpret %s: %w", path, err)
	}
	fnValue, err := i.Eval(entrypointName)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s must define %s(context.Context, map[string]string) (map[string]string, error): %w",
			path, entrypointName, err)
	}
	if fnValue.Kind() != reflect.Func {
		return nil, fmt.Errorf("plugin: %s: %s is not a function", path, entrypointName)
	}
	return &interpretedRunner{path: path, fn: fnValue}, nil
}

// interpretedRunner adapts an interpreted Run function to action.Runner.
// The same instance serves every dispatch of its kind.
type interpretedRunner struct {
	path string
	fn   reflect.Value
}

func (r *interpretedRunner) Run(ctx context.Context, inv *action.Invocation) error {
	params := make(map[string]string, len(inv.Params))
	for key, value := range inv.Params {
		params[key] = fmt.Sprint(value)
	}
	results, err := r.call(ctx, params)
	if err != nil {
		return action.Failf("plugin %s: %v", r.path, err)
	}
	outcomes, callErr := unpackResults(results)
	if callErr != nil {
		return callErr
	}
	for key, value := range outcomes {
		inv.Emit.YieldOutcome(key, value)
	}
	return nil
}

func (r *interpretedRunner) call(ctx context.Context, params map[string]string) (results []reflect.Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	results = r.fn.Call([]reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(params)})
	if len(results) != 2 {
		return nil, fmt.Errorf("%s must return (map[string]string, error)", entrypointName)
	}
	return results, nil
}

func unpackResults(results []reflect.Value) (map[string]string, error) {
	if !results[1].IsNil() {
		callErr, ok := results[1].Interface().(error)
		if !ok {
			return nil, action.Failf("plugin returned a non-error second value")
		}
		if runErr, ok := callErr.(*action.RunError); ok {
			return nil, runErr
		}
		return nil, action.Failf("%v", callErr)
	}
	if results[0].IsNil() {
		return nil, nil
	}
	outcomes, ok := results[0].Interface().(map[string]string)
	if !ok {
		return nil, action.Failf("plugin returned a non-map first value")
	}
	return outcomes, nil
}
