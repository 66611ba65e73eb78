package codec

import (
	"fmt"

	"github.com/cwbudde/algo-reverb/dsp/core"
	"github.com/go-audio/audio"
	"github.com/go-audio/transforms"
)

// Downmix averages a stereo signal to mono. Mono input is returned as is.
func Downmix(sig core.Signal) (core.Signal, error) {
	if err := sig.Validate(); err != nil {
		return core.Signal{}, fmt.Errorf("codec: %w", err)
	}
	if sig.IsMono() {
		return sig, nil
	}

	buf := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: sig.NumChannels(), SampleRate: sig.SampleRate},
		Data:   sig.Interleave(),
	}
	if err := transforms.MonoDownmix(buf); err != nil {
		return core.Signal{}, fmt.Errorf("codec: downmix: %w", err)
	}

	return core.Mono(sig.SampleRate, buf.Data), nil
}
