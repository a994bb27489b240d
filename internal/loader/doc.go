// Package loader turns on-disk workflow descriptions into descriptor sets.
// Two formats are bundled: YAML (the default, with !import composition)
// and HCL. The loader for a given source is chosen by file suffix; reading
// from stdin defaults to YAML. Loaders only parse and shape-check; graph
// validation happens in the graph package.
package loader
