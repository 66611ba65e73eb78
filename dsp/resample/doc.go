// Package resample converts whole signals between sample rates using a
// windowed-sinc polyphase FIR.
//
// It is used to bring an impulse response recorded at one rate to the rate of
// the material it is convolved with. Conversion is one-shot: the complete
// input is available, so [Convert] compensates the filter's group delay and
// the output is time-aligned with the input.
//
// Quality modes:
//
//	mode            taps/phase   nominal stopband
//	QualityFast     16           ~55 dB
//	QualityBalanced 32           ~75 dB
//	QualityBest     64           ~90 dB
package resample
