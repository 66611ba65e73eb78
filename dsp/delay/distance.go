// Package delay converts acoustic path lengths into integer sample delays.
//
// Every reverb in this module places its echoes by distance rather than by
// time: a reflection travelling d meters arrives d/343 seconds after the
// direct sound, which at rate fs is floor(d*fs/343) samples.
package delay

import "math"

// SpeedOfSound is the propagation speed used for all delay computations, in m/s.
const SpeedOfSound = 343.0

// FromDistance returns floor(meters*sampleRate/SpeedOfSound).
// Negative, NaN and non-positive-rate inputs yield 0; results beyond the int
// range saturate at math.MaxInt.
func FromDistance(meters float64, sampleRate int) int {
	if sampleRate <= 0 {
		return 0
	}

	d := math.Floor(meters * float64(sampleRate) / SpeedOfSound)
	switch {
	case math.IsNaN(d) || d <= 0:
		return 0
	case d >= math.MaxInt:
		return math.MaxInt
	}

	return int(d)
}

// Distance returns the path length in meters that corresponds to a delay of
// samples at sampleRate. It is the inverse of [FromDistance] up to flooring.
func Distance(samples, sampleRate int) float64 {
	if sampleRate <= 0 || samples <= 0 {
		return 0
	}

	return float64(samples) * SpeedOfSound / float64(sampleRate)
}
