// Package analysis characterises recorded temperature traces.
//
//   - [StepResponseOf]: rise time, overshoot and settling of a set-point approach
//   - [PowerSpectrum]: one-sided spectrum of the tracking error
//   - [DominantPeriod]: period of the strongest oscillation
//
// A trace that never settles has Settled false and SettlingTime equal to
// the last sample time:
//
//	r := analysis.StepResponseOf(times, temps, 45, 0.5)
//	if !r.Settled {
//	    // controller too slow or unstable
//	}
package analysis
