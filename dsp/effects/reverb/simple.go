package reverb

import "github.com/cwbudde/algo-reverb/dsp/delay"

// reflectionGain is the wall reflection attenuation.
const reflectionGain = 0.5

// SimpleReflection models a source d1 meters from the microphone and a wall
// d2 meters behind it: the direct sound plus one reflection travelling
// d1+2*d2 meters, attenuated by half. The result is normalized.
func SimpleReflection(x []float64, sampleRate int, d1, d2 float64, opts ...Option) []float64 {
	cfg := newConfig(opts)

	d := delay.FromDistance(d1+2*d2, sampleRate)
	cfg.stage("simple", d1+2*d2, d, len(x))

	y := make([]float64, len(x))
	start := min(d, len(x))
	if cfg.leadIn == LeadInZeroState {
		copy(y[:start], x[:start])
	}
	for n := start; n < len(x); n++ {
		y[n] = x[n] + reflectionGain*x[n-d]
	}

	Normalize(y)
	return y
}
