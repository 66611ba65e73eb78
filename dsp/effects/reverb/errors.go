package reverb

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEffect is returned for an effect identifier outside the closed set.
	ErrUnknownEffect = errors.New("reverb: unknown effect")
	// ErrNotMono is returned when an effect receives more than one channel.
	ErrNotMono = errors.New("reverb: input must be mono")
	// ErrNoImpulse is returned when the impulse effect runs without a response.
	ErrNoImpulse = errors.New("reverb: no impulse response")
	// ErrEmptyImpulse is returned for an impulse response with an empty channel.
	ErrEmptyImpulse = errors.New("reverb: empty impulse response")
	// ErrImpulseChannels is returned when impulse response channels differ in length.
	ErrImpulseChannels = errors.New("reverb: impulse response channel lengths differ")
	// ErrImpulseRate is returned when the impulse response rate differs from the input rate.
	ErrImpulseRate = errors.New("reverb: impulse response sample rate mismatch")
	// ErrInvalidDistance is returned for negative or non-finite distances.
	ErrInvalidDistance = errors.New("reverb: invalid distance")
	// ErrInvalidOption is returned when an option name cannot be parsed.
	ErrInvalidOption = errors.New("reverb: invalid option")
	// ErrAssetLoad matches every *AssetLoadError.
	ErrAssetLoad = errors.New("reverb: impulse response asset unavailable")
)

// AssetLoadError reports a missing or unreadable impulse response asset.
type AssetLoadError struct {
	Path string
	Err  error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("reverb: load impulse response %q: %v", e.Path, e.Err)
}

// Unwrap exposes both ErrAssetLoad and the underlying cause.
func (e *AssetLoadError) Unwrap() []error {
	return []error{ErrAssetLoad, e.Err}
}
