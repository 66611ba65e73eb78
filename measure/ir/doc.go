// Package ir summarizes room impulse responses with ISO 3382 style metrics.
//
// All metrics derive from the cumulative energy of the squared response:
//
//   - RT60: reverberation time, from T30 or else T20
//   - EDT: early decay time (0 to -10 dB, extrapolated)
//   - T20, T30: decay from -5 dB to -25 dB and -35 dB, extrapolated
//   - C50, C80: early-to-late energy ratio in dB
//   - D50, D80: early energy fraction
//   - CenterTime: temporal energy centroid
//
// Usage:
//
//	a := ir.NewAnalyzer(44100)
//	left, right, err := a.AnalyzeStereo(irLeft, irRight)
package ir
