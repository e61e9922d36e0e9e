// Package gym defines the agent-facing environment contract: reset, step,
// seed, spaces and metadata, plus the episode bookkeeping shared by all
// environments.
//
// An episode starts at Reset and ends on the first Step that returns
// Done. Further Step calls before the next Reset are tolerated: they pay
// zero reward and the first one is reported to the environment's
// [Warner].
package gym
