// Package action defines the runner contract: the polymorphic capability
// that turns resolved parameters into an executed unit of work. One Runner
// implementation exists per action kind; implementations communicate back
// through an Emission handle (streamed output lines and yielded outcome
// values) and through the returned error, which the engine normalizes into
// a terminal status. Runners must honor context cancellation promptly.
package action
