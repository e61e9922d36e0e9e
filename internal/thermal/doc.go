// Package thermal implements the heated-can environment: a first-order
// thermal process driven by a heater the agent controls.
//
// Each Step maps the action to heater power through an [Encoding], holds
// that power constant while integrating the can temperature over one
// macro step of fixed sub-steps, re-evaluates the ambient model, checks
// the observation bounds and scores the new temperature with a
// reward.Policy.
//
// The observation is (can temperature, ambient temperature) in degrees
// Celsius. An Env is not safe for concurrent use.
package thermal
