package codec

import (
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-reverb/dsp/core"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth  = 16
	wavFormatPCM = 1
)

// EncodeWAV16 writes sig as interleaved 16-bit PCM WAV at its own sample
// rate. Samples are clipped to [-1, 1] and quantized with round(x*32767).
func EncodeWAV16(w io.WriteSeeker, sig core.Signal) error {
	if err := sig.Validate(); err != nil {
		return fmt.Errorf("codec: %w", err)
	}

	pcm := core.ToPCM16Slice(nil, sig.Interleave())
	data := make([]int, len(pcm))
	for i, v := range pcm {
		data[i] = int(v)
	}

	nch := sig.NumChannels()
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: nch, SampleRate: sig.SampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}

	enc := wav.NewEncoder(w, sig.SampleRate, wavBitDepth, nch, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("codec: write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("codec: finalize wav: %w", err)
	}

	return nil
}

// WriteWAVFile creates path and encodes sig into it.
func WriteWAVFile(path string, sig core.Signal) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("codec: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("codec: %w", cerr)
		}
	}()

	return EncodeWAV16(f, sig)
}
