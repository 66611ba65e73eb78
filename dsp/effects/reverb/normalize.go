package reverb

import (
	"github.com/cwbudde/algo-reverb/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

// Headroom is the peak magnitude produced by normalization.
const Headroom = 0.9

// Normalize scales all channels in place by one common factor so that the
// largest magnitude across them becomes Headroom. Silent or empty input is
// left untouched. It returns the peak measured before scaling.
func Normalize(channels ...[]float64) float64 {
	var peak float64
	for _, ch := range channels {
		if len(ch) > 0 {
			peak = max(peak, vecmath.MaxAbs(ch))
		}
	}

	if peak > 0 {
		scale := Headroom / peak
		for _, ch := range channels {
			if len(ch) > 0 {
				vecmath.ScaleBlockInPlace(ch, scale)
			}
		}
	}

	return peak
}

// NormalizeSignal normalizes every channel of sig in place.
func NormalizeSignal(sig core.Signal) float64 {
	return Normalize(sig.Channels...)
}
