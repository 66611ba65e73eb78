// Package codec decodes uploaded audio files into core signals and encodes
// rendered signals as 16-bit PCM WAV.
package codec

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Errors returned by the codec.
var (
	ErrUnsupportedFormat = errors.New("codec: unsupported audio format")
	ErrInvalidFile       = errors.New("codec: invalid or corrupt audio file")
	ErrTooManyChannels   = errors.New("codec: only mono and stereo are supported")
)

// Format is a container/codec the decoder understands.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatAIFF
	FormatMP3
	FormatOgg
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatAIFF:
		return "aiff"
	case FormatMP3:
		return "mp3"
	case FormatOgg:
		return "ogg"
	default:
		return "unknown"
	}
}

// FormatFromName infers the format from a file name's extension.
func FormatFromName(name string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".wav", ".wave":
		return FormatWAV, nil
	case ".aiff", ".aif":
		return FormatAIFF, nil
	case ".mp3":
		return FormatMP3, nil
	case ".ogg", ".oga":
		return FormatOgg, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
