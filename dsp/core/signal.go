package core

import "errors"

// Errors returned by [Signal.Validate].
var (
	ErrInvalidSampleRate = errors.New("core: sample rate must be > 0")
	ErrChannelCount      = errors.New("core: signal must have 1 or 2 channels")
	ErrChannelLength     = errors.New("core: channel lengths differ")
)

// Signal is a mono or stereo floating-point buffer plus its sample rate.
// Samples are nominally in [-1, 1]; stereo channels share one length.
type Signal struct {
	SampleRate int
	Channels   [][]float64
}

// Mono wraps samples as a single-channel signal. The slice is not copied.
func Mono(sampleRate int, samples []float64) Signal {
	return Signal{SampleRate: sampleRate, Channels: [][]float64{samples}}
}

// Stereo wraps left and right as a two-channel signal. The slices are not copied.
func Stereo(sampleRate int, left, right []float64) Signal {
	return Signal{SampleRate: sampleRate, Channels: [][]float64{left, right}}
}

// Validate checks the sample rate and channel layout.
func (s Signal) Validate() error {
	if s.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}

	if len(s.Channels) < 1 || len(s.Channels) > 2 {
		return ErrChannelCount
	}

	n := len(s.Channels[0])
	for _, ch := range s.Channels[1:] {
		if len(ch) != n {
			return ErrChannelLength
		}
	}

	return nil
}

// Len returns the number of frames (samples per channel).
func (s Signal) Len() int {
	if len(s.Channels) == 0 {
		return 0
	}

	return len(s.Channels[0])
}

// NumChannels returns 1 for mono and 2 for stereo.
func (s Signal) NumChannels() int {
	return len(s.Channels)
}

// IsMono reports whether the signal has exactly one channel.
func (s Signal) IsMono() bool {
	return len(s.Channels) == 1
}

// Seconds returns the signal duration.
func (s Signal) Seconds() float64 {
	if s.SampleRate <= 0 {
		return 0
	}

	return float64(s.Len()) / float64(s.SampleRate)
}

// Clone returns a deep copy.
func (s Signal) Clone() Signal {
	out := Signal{SampleRate: s.SampleRate, Channels: make([][]float64, len(s.Channels))}
	for i, ch := range s.Channels {
		out.Channels[i] = append([]float64(nil), ch...)
	}

	return out
}

// Interleave returns frames in L/R/L/R order (or the mono samples unchanged in a new slice).
func (s Signal) Interleave() []float64 {
	nch := len(s.Channels)
	n := s.Len()
	out := make([]float64, n*nch)

	for c, ch := range s.Channels {
		for i := 0; i < n; i++ {
			out[i*nch+c] = ch[i]
		}
	}

	return out
}

// Deinterleave splits frames stored in channel order into a Signal.
// A trailing partial frame is dropped.
func Deinterleave(sampleRate, numChannels int, data []float64) Signal {
	if numChannels <= 0 {
		return Signal{SampleRate: sampleRate}
	}

	frames := len(data) / numChannels
	chans := make([][]float64, numChannels)

	for c := range chans {
		chans[c] = make([]float64, frames)
		for i := 0; i < frames; i++ {
			chans[c][i] = data[i*numChannels+c]
		}
	}

	return Signal{SampleRate: sampleRate, Channels: chans}
}
