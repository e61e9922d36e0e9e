package analysis

import (
	"math"
)

type StepResponse struct {
	RiseTime         float64
	Overshoot        float64
	SettlingTime     float64
	SteadyStateError float64
	Settled          bool
}

// StepResponseOf measures the approach of temps from temps[0] toward
// setpoint. Rise time runs from 10% to 90% of the initial gap; settling
// is the first time after which every sample stays within band. The
// steady-state error is the mean absolute error over the final tenth.
func StepResponseOf(times, temps []float64, setpoint, band float64) StepResponse {
	n := len(temps)
	if n == 0 || len(times) != n {
		return StepResponse{}
	}

	var r StepResponse
	gap := setpoint - temps[0]
	dir := 1.0
	if gap < 0 {
		dir = -1
	}

	if gap != 0 {
		t10, t90 := -1.0, -1.0
		for i, v := range temps {
			progress := (v - temps[0]) / gap
			if t10 < 0 && progress >= 0.1 {
				t10 = times[i]
			}
			if t90 < 0 && progress >= 0.9 {
				t90 = times[i]
				break
			}
		}
		if t10 >= 0 && t90 >= 0 {
			r.RiseTime = t90 - t10
		} else {
			r.RiseTime = math.Inf(1)
		}
	}

	for _, v := range temps {
		r.Overshoot = math.Max(r.Overshoot, dir*(v-setpoint))
	}

	r.SettlingTime = times[n-1]
	for i := n - 1; i >= 0; i-- {
		if math.Abs(temps[i]-setpoint) > band {
			if i < n-1 {
				r.Settled = true
				r.SettlingTime = times[i+1]
			}
			break
		}
		if i == 0 {
			r.Settled = true
			r.SettlingTime = times[0]
		}
	}

	tail := n / 10
	if tail == 0 {
		tail = 1
	}
	sum := 0.0
	for _, v := range temps[n-tail:] {
		sum += math.Abs(v - setpoint)
	}
	r.SteadyStateError = sum / float64(tail)

	return r
}
