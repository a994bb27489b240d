// Package bundled holds the runner kinds that ship with the binary: echo,
// shell, docker-shell and http. Each runner reads its rendered parameters
// from the invocation and reports output and outcomes through the emission
// handle.
package bundled
