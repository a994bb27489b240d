// Package model holds the format-agnostic workflow data model: action
// descriptors, dependency attributes, and the per-action status set shared
// by the graph, the strategies, and the engine.
package model
