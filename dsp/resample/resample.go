package resample

import (
	"errors"
	"math"
)

var (
	// ErrInvalidRatio indicates an invalid up/down ratio.
	ErrInvalidRatio = errors.New("resample: invalid ratio")
	// ErrInvalidRate indicates an invalid input/output sample rate.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
)

// Quality controls default anti-aliasing filter settings.
type Quality int

const (
	// QualityFast prioritizes lower CPU usage.
	QualityFast Quality = iota
	// QualityBalanced is the default quality/performance trade-off.
	QualityBalanced
	// QualityBest prioritizes stopband attenuation and passband flatness.
	QualityBest
)

// String returns the quality name.
func (q Quality) String() string {
	switch q {
	case QualityFast:
		return "fast"
	case QualityBest:
		return "best"
	default:
		return "balanced"
	}
}

// Profile exposes default filter parameters for each quality mode.
type Profile struct {
	TapsPerPhase      int
	CutoffScale       float64
	KaiserBeta        float64
	NominalStopbandDB float64
}

// QualityProfile returns the default profile used by quality mode q.
func QualityProfile(q Quality) Profile {
	switch q {
	case QualityFast:
		return Profile{TapsPerPhase: 16, CutoffScale: 0.88, KaiserBeta: 5.0, NominalStopbandDB: 55}
	case QualityBest:
		return Profile{TapsPerPhase: 64, CutoffScale: 0.96, KaiserBeta: 9.0, NominalStopbandDB: 90}
	default:
		return Profile{TapsPerPhase: 32, CutoffScale: 0.92, KaiserBeta: 7.5, NominalStopbandDB: 75}
	}
}

type config struct {
	quality      Quality
	tapsPerPhase int
	cutoffScale  float64
	kaiserBeta   float64
	maxDen       int
}

// Option configures the resampler.
type Option func(*config)

// WithQuality selects a predefined anti-aliasing quality mode.
func WithQuality(q Quality) Option {
	return func(cfg *config) {
		cfg.quality = q
	}
}

// WithTapsPerPhase overrides taps per polyphase branch.
func WithTapsPerPhase(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.tapsPerPhase = n
		}
	}
}

// WithCutoffScale overrides normalized cutoff scaling in range (0, 1].
// 1.0 equals the theoretical anti-aliasing cutoff.
func WithCutoffScale(v float64) Option {
	return func(cfg *config) {
		if v > 0 && v <= 1 {
			cfg.cutoffScale = v
		}
	}
}

// WithMaxDenominator caps the reduced ratio's terms. Rate pairs whose exact
// ratio exceeds it are approximated by continued fractions.
func WithMaxDenominator(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxDen = n
		}
	}
}

func newConfig(opts []Option) config {
	cfg := config{quality: QualityBalanced, maxDen: 4096}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	p := QualityProfile(cfg.quality)
	if cfg.tapsPerPhase <= 0 {
		cfg.tapsPerPhase = p.TapsPerPhase
	}
	if cfg.cutoffScale <= 0 || cfg.cutoffScale > 1 {
		cfg.cutoffScale = p.CutoffScale
	}
	if cfg.kaiserBeta <= 0 {
		cfg.kaiserBeta = p.KaiserBeta
	}

	return cfg
}

// Resampler performs rational sample-rate conversion by up/down.
// It holds no per-signal state and is safe for concurrent use.
type Resampler struct {
	up      int
	down    int
	quality Quality
	bank    polyphase
}

// NewRational creates a resampler for ratio up/down.
func NewRational(up, down int, opts ...Option) (*Resampler, error) {
	if up <= 0 || down <= 0 {
		return nil, ErrInvalidRatio
	}

	g := gcd(up, down)
	up /= g
	down /= g

	cfg := newConfig(opts)

	bank, err := designPolyphase(up, down, cfg)
	if err != nil {
		return nil, err
	}

	return &Resampler{up: up, down: down, quality: cfg.quality, bank: bank}, nil
}

// NewForRates creates a resampler converting inRate to outRate. The exact
// ratio is used when its reduced terms fit the maximum denominator, and a
// continued-fraction approximation otherwise.
func NewForRates(inRate, outRate float64, opts ...Option) (*Resampler, error) {
	if inRate <= 0 || outRate <= 0 || math.IsNaN(inRate) || math.IsNaN(outRate) ||
		math.IsInf(inRate, 0) || math.IsInf(outRate, 0) {
		return nil, ErrInvalidRate
	}

	cfg := newConfig(opts)

	if inRate == math.Trunc(inRate) && outRate == math.Trunc(outRate) {
		up, down := int(outRate), int(inRate)
		g := gcd(up, down)
		if up/g <= cfg.maxDen && down/g <= cfg.maxDen {
			return NewRational(up, down, opts...)
		}
	}

	up, down := approximateRatio(outRate/inRate, cfg.maxDen)

	return NewRational(up, down, opts...)
}

// Resample converts input using ratio up/down as a one-shot helper. The
// output is not delay-compensated; see [Convert].
func Resample(input []float64, up, down int, opts ...Option) ([]float64, error) {
	r, err := NewRational(up, down, opts...)
	if err != nil {
		return nil, err
	}

	return r.Process(input), nil
}

// Convert resamples input from inRate to outRate and removes the filter's
// group delay, so an event at input time t appears at output time t.
// The result has OutputLen(len(input)) samples. Equal rates return a copy.
func Convert(input []float64, inRate, outRate int, opts ...Option) ([]float64, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, ErrInvalidRate
	}

	if inRate == outRate {
		out := make([]float64, len(input))
		copy(out, input)
		return out, nil
	}

	r, err := NewForRates(float64(inRate), float64(outRate), opts...)
	if err != nil {
		return nil, err
	}

	return r.Aligned(input), nil
}

// Process filters input and returns OutputLen(len(input)) samples. Output
// sample o is centred on upsampled time o*down, so it lags the input by
// Latency() output samples.
func (r *Resampler) Process(input []float64) []float64 {
	return r.render(input, 0, r.OutputLen(len(input)))
}

// Aligned is Process with the group delay removed. Samples that would read
// past the end of input see zeros.
func (r *Resampler) Aligned(input []float64) []float64 {
	return r.render(input, r.Latency(), r.OutputLen(len(input)))
}

func (r *Resampler) render(input []float64, skip, n int) []float64 {
	if len(input) == 0 || n <= 0 {
		return nil
	}

	out := make([]float64, n)
	for o := range out {
		pos := (o + skip) * r.down
		idx := pos / r.up
		taps := r.bank.phases[pos%r.up]

		var y float64
		for k, c := range taps {
			i := idx - k
			if i < 0 {
				break
			}
			if i < len(input) {
				y += c * input[i]
			}
		}

		out[o] = y
	}

	return out
}

// OutputLen returns ceil(inputLen*up/down), the number of output samples
// whose centre falls inside an input of inputLen samples.
func (r *Resampler) OutputLen(inputLen int) int {
	if inputLen <= 0 {
		return 0
	}

	return (inputLen*r.up + r.down - 1) / r.down
}

// Latency returns the filter group delay in output samples.
func (r *Resampler) Latency() int {
	center := 0.5 * float64(len(r.bank.taps)-1)
	return int(math.Round(center / float64(r.down)))
}

// Ratio returns reduced up/down conversion factors.
func (r *Resampler) Ratio() (up, down int) {
	return r.up, r.down
}

// Quality returns the configured quality mode.
func (r *Resampler) Quality() Quality {
	return r.quality
}

// TapsPerPhase returns taps in each polyphase branch for phase 0.
func (r *Resampler) TapsPerPhase() int {
	if len(r.bank.phases) == 0 {
		return 0
	}

	return len(r.bank.phases[0])
}

// Prototype returns a copy of the underlying prototype FIR taps.
func (r *Resampler) Prototype() []float64 {
	out := make([]float64, len(r.bank.taps))
	copy(out, r.bank.taps)

	return out
}
