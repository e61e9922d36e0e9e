// Package control provides baseline policies for driving an environment
// without a learning agent.
//
// Feedback controllers compute a heater demand in watts from the current
// observation:
//
//   - [Constant]: fixed demand
//   - [PID]: Proportional-Integral-Derivative on the can temperature
//   - [StateFeedback]: linear feedback around a feedforward term
//
// [Demand] turns a controller into a [Policy] by mapping the demand back
// to a valid action through the environment's encoding. [Random] samples
// the action space directly.
//
// # Usage
//
//	pid := control.NewPID(20, 0.05, 0, env.Setpoint())
//	policy := control.NewDemand(pid, env.Encoding(), env.HeatLevel)
//	action := policy.Action(obs, t)
//
// Controllers implementing [dynamo.Configurable] support tuning.
package control
