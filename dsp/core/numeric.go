package core

import "math"

const defaultEpsilon = 1e-12

// PCM16 scale factors. Decoding divides by 32768, encoding multiplies by 32767
// so that full scale never wraps.
const (
	PCM16DecodeScale = 32768.0
	PCM16EncodeScale = 32767.0
)

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps (absolute or relative).
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return false
	}

	return diff/largest <= eps
}

// FromPCM16 converts a signed 16-bit sample to the float range [-1, 1).
func FromPCM16(v int16) float64 {
	return float64(v) / PCM16DecodeScale
}

// ToPCM16 clips x to [-1, 1] and quantizes it with round(x*32767).
// NaN maps to 0.
func ToPCM16(x float64) int16 {
	if math.IsNaN(x) {
		return 0
	}

	return int16(math.Round(Clamp(x, -1, 1) * PCM16EncodeScale))
}

// ToPCM16Slice quantizes every sample of src into dst and returns dst.
// dst is allocated when it is shorter than src.
func ToPCM16Slice(dst []int16, src []float64) []int16 {
	if len(dst) < len(src) {
		dst = make([]int16, len(src))
	}

	dst = dst[:len(src)]
	for i, x := range src {
		dst[i] = ToPCM16(x)
	}

	return dst
}
