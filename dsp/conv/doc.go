// Package conv provides full linear convolution of real signals.
//
// Two strategies are offered:
//
//   - Direct convolution: O(N*M) time-domain convolution, best for short kernels
//   - Overlap-add (OLA): FFT-based block convolution for long kernels such as
//     measured room impulse responses
//
// # Usage
//
//	full, err := conv.Convolve(signal, kernel)             // auto-selects the algorithm
//	head, err := conv.ConvolveMode(signal, kernel, conv.ModeHead)
//
// For repeated convolution with the same kernel, create a reusable convolver:
//
//	oa, err := conv.NewOverlapAdd(kernel, 0)
//	result, err := oa.Process(signal)
//
// # Output modes
//
// Convolution is always computed in full (length len(a)+len(b)-1, never
// circular) and then trimmed:
//
//   - ModeFull returns everything
//   - ModeSame centres the result on the first input
//   - ModeValid keeps only fully overlapping positions
//   - ModeHead keeps the first len(a) samples, discarding the tail that rings
//     past the end of the input
//
// # Algorithm Selection
//
// [Convolve] uses direct convolution when the shorter operand has at most 64
// samples and FFT overlap-add otherwise. The crossover was measured at roughly
// 64-128 taps for a 4096-sample signal.
package conv
