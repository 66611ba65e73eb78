package reverb

import (
	"fmt"

	"github.com/cwbudde/algo-reverb/dsp/conv"
	"golang.org/x/sync/errgroup"
)

// ImpulseResponse is a stereo room impulse response. It is not modified
// after loading and may be shared between goroutines.
type ImpulseResponse struct {
	SampleRate int
	Left       []float64
	Right      []float64
}

// Len returns the response length in samples.
func (ir *ImpulseResponse) Len() int {
	return len(ir.Left)
}

// Validate checks that both channels are present and of equal length.
func (ir *ImpulseResponse) Validate() error {
	if len(ir.Left) == 0 || len(ir.Right) == 0 {
		return ErrEmptyImpulse
	}
	if len(ir.Left) != len(ir.Right) {
		return fmt.Errorf("%w: left %d, right %d", ErrImpulseChannels, len(ir.Left), len(ir.Right))
	}
	return nil
}

// ImpulseReverb convolves mono input with a stereo room impulse response.
//
// The convolution is computed in full and each channel is then cut to the
// input length, so the output lasts exactly as long as the input and the
// decay tail past the end is dropped. Both channels are normalized together.
type ImpulseReverb struct {
	ir  *ImpulseResponse
	cfg *config
}

// NewImpulseReverb validates ir and returns a reverb using it.
func NewImpulseReverb(ir *ImpulseResponse, opts ...Option) (*ImpulseReverb, error) {
	if ir == nil {
		return nil, ErrNoImpulse
	}
	if err := ir.Validate(); err != nil {
		return nil, err
	}

	return &ImpulseReverb{ir: ir, cfg: newConfig(opts)}, nil
}

// Process returns the left and right channels of the reverberated input,
// each len(x) samples long.
func (r *ImpulseReverb) Process(x []float64) ([][]float64, error) {
	r.cfg.stage("rir", 0, r.ir.Len(), len(x))

	if len(x) == 0 {
		return [][]float64{{}, {}}, nil
	}

	kernels := [2][]float64{r.ir.Left, r.ir.Right}
	out := make([][]float64, len(kernels))

	var g errgroup.Group
	for ch, kernel := range kernels {
		g.Go(func() error {
			y, err := conv.ConvolveMode(x, kernel, conv.ModeHead)
			if err != nil {
				return fmt.Errorf("reverb: convolve channel %d: %w", ch, err)
			}
			out[ch] = y
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	Normalize(out...)
	return out, nil
}
