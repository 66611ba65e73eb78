package codec

import (
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-reverb/dsp/core"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// Decode reads a complete file of the given format. Integer PCM is scaled
// by 1/2^(bitDepth-1), so 16-bit input maps v to v/32768.
func Decode(r io.ReadSeeker, format Format) (core.Signal, error) {
	var (
		sig core.Signal
		err error
	)

	switch format {
	case FormatWAV:
		sig, err = decodeWAV(r)
	case FormatAIFF:
		sig, err = decodeAIFF(r)
	case FormatMP3:
		sig, err = decodeMP3(r)
	case FormatOgg:
		sig, err = decodeOgg(r)
	default:
		return core.Signal{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return core.Signal{}, err
	}

	if err := sig.Validate(); err != nil {
		return core.Signal{}, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	return sig, nil
}

// DecodeFile opens path and decodes it according to its extension.
func DecodeFile(path string) (core.Signal, error) {
	format, err := FormatFromName(path)
	if err != nil {
		return core.Signal{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return core.Signal{}, fmt.Errorf("codec: %w", err)
	}
	defer f.Close()

	return Decode(f, format)
}

func decodeWAV(r io.ReadSeeker) (core.Signal, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return core.Signal{}, fmt.Errorf("%w: not a WAV file", ErrInvalidFile)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return core.Signal{}, fmt.Errorf("%w: wav: %w", ErrInvalidFile, err)
	}

	// 8-bit WAV is stored unsigned.
	var offset int
	if buf.SourceBitDepth == 8 {
		offset = 128
	}

	return fromIntBuffer(buf, offset)
}

func decodeAIFF(r io.ReadSeeker) (core.Signal, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return core.Signal{}, fmt.Errorf("%w: not an AIFF file", ErrInvalidFile)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return core.Signal{}, fmt.Errorf("%w: aiff: %w", ErrInvalidFile, err)
	}

	return fromIntBuffer(buf, 0)
}

func fromIntBuffer(buf *audio.IntBuffer, offset int) (core.Signal, error) {
	if buf == nil || buf.Format == nil {
		return core.Signal{}, fmt.Errorf("%w: missing format", ErrInvalidFile)
	}

	nch := buf.Format.NumChannels
	if err := checkChannels(nch); err != nil {
		return core.Signal{}, err
	}

	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = 16
	}
	scale := 1 / float64(int64(1)<<(depth-1))

	data := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		data[i] = float64(v-offset) * scale
	}

	return core.Deinterleave(buf.Format.SampleRate, nch, data), nil
}

// decodeMP3 reads 16-bit little-endian stereo PCM from go-mp3.
func decodeMP3(r io.Reader) (core.Signal, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return core.Signal{}, fmt.Errorf("%w: mp3: %w", ErrInvalidFile, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return core.Signal{}, fmt.Errorf("%w: mp3: %w", ErrInvalidFile, err)
	}

	data := make([]float64, len(raw)/2)
	for i := range data {
		data[i] = core.FromPCM16(int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8))
	}

	return core.Deinterleave(dec.SampleRate(), 2, data), nil
}

func decodeOgg(r io.Reader) (core.Signal, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return core.Signal{}, fmt.Errorf("%w: ogg: %w", ErrInvalidFile, err)
	}
	if err := checkChannels(format.Channels); err != nil {
		return core.Signal{}, err
	}

	data := make([]float64, len(samples))
	for i, v := range samples {
		data[i] = float64(v)
	}

	return core.Deinterleave(format.SampleRate, format.Channels, data), nil
}

func checkChannels(n int) error {
	switch {
	case n < 1:
		return fmt.Errorf("%w: %d channels", ErrInvalidFile, n)
	case n > 2:
		return fmt.Errorf("%w: got %d", ErrTooManyChannels, n)
	}
	return nil
}
