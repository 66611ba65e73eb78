// Package testutil holds deterministic signal generators and tolerance
// assertions shared by the package tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Silence returns seconds of digital silence at sampleRate.
func Silence(sampleRate int, seconds float64) []float64 {
	return make([]float64, int(float64(sampleRate)*seconds))
}

// RoomResponse synthesizes an exponentially decaying noise tail whose energy
// falls by 60 dB after rt60 seconds. The first sample is a unit direct-path
// impulse.
func RoomResponse(seed int64, sampleRate int, rt60 float64, length int) []float64 {
	out := DeterministicNoise(seed, 0.5, length)
	// 60 dB energy decay = amplitude factor 10^-3 over rt60 seconds.
	decay := math.Log(1000) / (rt60 * float64(sampleRate))
	for i := range out {
		out[i] *= math.Exp(-decay * float64(i))
	}
	if length > 0 {
		out[0] = 1
	}
	return out
}
