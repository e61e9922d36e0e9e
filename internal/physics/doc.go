// Package physics provides the thermal process models used by the
// environments.
//
// [ThermalCan] implements [dynamo.System] for a heated can insulated by a
// foam layer and exchanging heat with its surroundings:
//
//	dT/dt = -k*A*(T - Tamb(t)) / (d*m*C) + P / (m*C)
//
// The surroundings are described by an [Ambient] model. Models that also
// implement [Sampler] carry a random component which is redrawn once per
// macro step and held across the integration sub-steps.
//
// [ThermalCan] implements [dynamo.Configurable] so individual physical
// constants can be overridden from configuration.
package physics
