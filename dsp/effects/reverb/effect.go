package reverb

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-reverb/dsp/core"
)

// Kind identifies one of the closed set of effects.
type Kind int

const (
	KindSimple Kind = iota
	KindComb
	KindAllpass
	KindSchroeder
	KindImpulse
)

var kindNames = [...]string{
	KindSimple:    "simple",
	KindComb:      "comb",
	KindAllpass:   "allpass",
	KindSchroeder: "schroeder",
	KindImpulse:   "rir",
}

// String returns the effect identifier used on the wire.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps an effect identifier to its Kind. Matching ignores case and
// surrounding space.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEffect, s)
}

// Kinds lists every effect in identifier order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// NeedsImpulse reports whether the effect requires an impulse response.
func (k Kind) NeedsImpulse() bool {
	return k == KindImpulse
}

// Params holds effect distances in meters. D1 and D2 are the source and wall
// distances of SimpleReflection; D is the distance of the other
// delay-based effects.
type Params struct {
	D1 float64
	D2 float64
	D  float64
}

// DefaultParams returns d1=2, d2=10 and d=10.
func DefaultParams() Params {
	return Params{D1: 2, D2: 10, D: 10}
}

// Validate rejects negative or non-finite distances.
func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"d1", p.D1}, {"d2", p.D2}, {"d", p.D}} {
		if f.v < 0 || math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidDistance, f.name, f.v)
		}
	}
	return nil
}

// Apply runs the effect selected by kind on the mono signal sig. The impulse
// effect needs ir at the signal's rate and returns stereo; every other
// effect returns mono. ir is ignored by the others and may be nil.
func Apply(kind Kind, sig core.Signal, p Params, ir *ImpulseResponse, opts ...Option) (core.Signal, error) {
	if err := sig.Validate(); err != nil {
		return core.Signal{}, fmt.Errorf("reverb: %w", err)
	}
	if !sig.IsMono() {
		return core.Signal{}, fmt.Errorf("%w: got %d channels", ErrNotMono, sig.NumChannels())
	}
	if err := p.Validate(); err != nil {
		return core.Signal{}, err
	}

	x := sig.Channels[0]
	rate := sig.SampleRate

	switch kind {
	case KindSimple:
		return core.Mono(rate, SimpleReflection(x, rate, p.D1, p.D2, opts...)), nil
	case KindComb:
		return core.Mono(rate, Comb(x, rate, p.D, opts...)), nil
	case KindAllpass:
		return core.Mono(rate, Allpass(x, rate, p.D, opts...)), nil
	case KindSchroeder:
		return core.Mono(rate, Schroeder(x, rate, p.D, opts...)), nil
	case KindImpulse:
		if ir == nil {
			return core.Signal{}, ErrNoImpulse
		}
		if ir.SampleRate != rate {
			return core.Signal{}, fmt.Errorf("%w: %d Hz response, %d Hz input", ErrImpulseRate, ir.SampleRate, rate)
		}
		rev, err := NewImpulseReverb(ir, opts...)
		if err != nil {
			return core.Signal{}, err
		}
		out, err := rev.Process(x)
		if err != nil {
			return core.Signal{}, err
		}
		return core.Stereo(rate, out[0], out[1]), nil
	default:
		return core.Signal{}, fmt.Errorf("%w: %v", ErrUnknownEffect, kind)
	}
}
