package reverb

import "github.com/cwbudde/algo-reverb/dsp/delay"

// combFeedback is the gain applied to each recirculation.
const combFeedback = 0.5

// Comb runs a feedback comb filter whose delay is the round trip over
// distance meters:
//
//	y[n] = x[n] + 0.5*y[n-delay]
//
// The output is not normalized.
func Comb(x []float64, sampleRate int, distance float64, opts ...Option) []float64 {
	return newConfig(opts).comb(x, sampleRate, distance)
}

func (c *config) comb(x []float64, sampleRate int, distance float64) []float64 {
	d := delay.FromDistance(2*distance, sampleRate)
	c.stage("comb", distance, d, len(x))

	return combFilter(x, d, c.leadIn)
}

func combFilter(x []float64, d int, lead LeadIn) []float64 {
	y := make([]float64, len(x))

	start := min(d, len(x))
	if lead == LeadInZeroState {
		copy(y[:start], x[:start])
	}

	// Sequential: y[n] depends on y[n-d]. With d == 0 that read sees the
	// not yet written zero, so the filter passes x through.
	for n := start; n < len(x); n++ {
		y[n] = x[n] + combFeedback*y[n-d]
	}

	return y
}
