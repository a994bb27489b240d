// Package display renders workflow progress to the console. Two layouts are
// available: "prefixes" tags every output line with the emitting action
// name, "headers" groups consecutive lines of one action under a header
// rule. Both end the run with a status banner.
package display
