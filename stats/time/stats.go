// Package time computes time-domain level statistics of rendered audio.
package time

import "math"

// ClipLevel is the magnitude above which a sample clips when quantized.
const ClipLevel = 1.0

// Summary describes the level of a (possibly multi-channel) signal. Peak and
// RMS are taken over all samples of all channels.
type Summary struct {
	Frames        int
	Channels      int
	Peak          float64
	PeakDB        float64
	RMS           float64
	RMSDB         float64
	DC            float64
	CrestFactorDB float64
	Energy        float64 // sum of squares
	Clipped       int     // samples with |x| > ClipLevel
	ZeroCrossings int
}

// AmpToDB converts an amplitude to decibels, 20*log10(|v|). Zero maps to -Inf.
func AmpToDB(v float64) float64 {
	a := math.Abs(v)
	if a == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(a)
}

// Summarize computes a Summary in one pass over every channel. Frames is the
// length of the longest channel.
func Summarize(channels ...[]float64) Summary {
	s := Summary{Channels: len(channels)}

	var sum float64
	var n int

	for _, ch := range channels {
		s.Frames = max(s.Frames, len(ch))
		for i, x := range ch {
			sum += x
			s.Energy += x * x

			a := math.Abs(x)
			s.Peak = math.Max(s.Peak, a)
			if a > ClipLevel {
				s.Clipped++
			}
			if i > 0 && ch[i-1]*x < 0 {
				s.ZeroCrossings++
			}
		}
		n += len(ch)
	}

	if n > 0 {
		s.DC = sum / float64(n)
		s.RMS = math.Sqrt(s.Energy / float64(n))
	}

	s.PeakDB = AmpToDB(s.Peak)
	s.RMSDB = AmpToDB(s.RMS)
	if s.RMS > 0 {
		s.CrestFactorDB = s.PeakDB - s.RMSDB
	}

	return s
}

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	return math.Sqrt(Energy(signal) / float64(len(signal)))
}

// Energy returns the sum of squared samples.
func Energy(signal []float64) float64 {
	var e float64
	for _, x := range signal {
		e += x * x
	}
	return e
}

// Peak returns the maximum absolute sample value.
func Peak(signal []float64) float64 {
	var p float64
	for _, x := range signal {
		p = math.Max(p, math.Abs(x))
	}
	return p
}

// ClipCount returns the number of samples whose magnitude exceeds ClipLevel.
func ClipCount(signal []float64) int {
	var n int
	for _, x := range signal {
		if math.Abs(x) > ClipLevel {
			n++
		}
	}
	return n
}
