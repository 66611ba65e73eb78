package reverb

import "github.com/cwbudde/algo-reverb/dsp/delay"

// allpassGain is the Schroeder allpass coefficient.
const allpassGain = 0.5

// Allpass runs a Schroeder allpass diffuser with the comb's delay:
//
//	y[n] = 0.5*x[n] + x[n-delay] - 0.5*y[n-delay]
//
// The output is not normalized.
func Allpass(x []float64, sampleRate int, distance float64, opts ...Option) []float64 {
	return newConfig(opts).allpass(x, sampleRate, distance)
}

func (c *config) allpass(x []float64, sampleRate int, distance float64) []float64 {
	d := delay.FromDistance(2*distance, sampleRate)
	c.stage("allpass", distance, d, len(x))

	return allpassFilter(x, d, c.leadIn)
}

func allpassFilter(x []float64, d int, lead LeadIn) []float64 {
	y := make([]float64, len(x))

	start := min(d, len(x))
	if lead == LeadInZeroState {
		for n := range start {
			y[n] = allpassGain * x[n]
		}
	}

	for n := start; n < len(x); n++ {
		y[n] = allpassGain*x[n] + x[n-d] - allpassGain*y[n-d]
	}

	return y
}
