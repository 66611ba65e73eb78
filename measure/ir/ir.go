package ir

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by IR analysis functions.
var (
	ErrEmptyIR           = errors.New("ir: impulse response is empty")
	ErrInvalidSampleRate = errors.New("ir: sample rate must be positive")
	ErrInvalidTime       = errors.New("ir: time must be positive")
	ErrNoDecay           = errors.New("ir: insufficient decay for RT calculation")
)

// decayFloorDB replaces log10(0) on the decay curve.
const decayFloorDB = -200

// Metrics holds impulse response analysis results. Times are in seconds.
type Metrics struct {
	RT60       float64
	EDT        float64
	T20        float64
	T30        float64
	C50        float64 // dB
	C80        float64 // dB
	D50        float64 // 0..1
	D80        float64 // 0..1
	CenterTime float64
	PeakIndex  int // index of the absolute maximum in the analysed response
}

func (m Metrics) String() string {
	return fmt.Sprintf("RT60=%.3fs EDT=%.3fs C80=%.1fdB D50=%.3f Ts=%.3fs",
		m.RT60, m.EDT, m.C80, m.D50, m.CenterTime)
}

// Analyzer computes IR metrics at a fixed sample rate.
type Analyzer struct {
	SampleRate float64
}

// NewAnalyzer creates an IR analyzer with the given sample rate.
func NewAnalyzer(sampleRate float64) *Analyzer {
	return &Analyzer{SampleRate: sampleRate}
}

// energy is the running energy of a response: cum[i] holds the energy of
// samples [0, i), so len(cum) == len(ir)+1.
type energy struct {
	rate float64
	cum  []float64
}

func newEnergy(ir []float64, rate float64) energy {
	cum := make([]float64, len(ir)+1)
	for i, v := range ir {
		cum[i+1] = cum[i] + v*v
	}
	return energy{rate: rate, cum: cum}
}

func (e energy) total() float64 { return e.cum[len(e.cum)-1] }

func (e energy) boundary(ms float64) int {
	return int(math.Round(ms * 0.001 * e.rate))
}

func (e energy) definition(ms float64) float64 {
	n := e.boundary(ms)
	switch {
	case n <= 0:
		return 0
	case n >= len(e.cum)-1:
		return 1
	}

	total := e.total()
	if total <= 0 {
		return 0
	}
	return e.cum[n] / total
}

func (e energy) clarity(ms float64) float64 {
	n := e.boundary(ms)
	switch {
	case n <= 0:
		return math.Inf(-1)
	case n >= len(e.cum)-1:
		return math.Inf(1)
	}

	early := e.cum[n]
	late := e.total() - early
	switch {
	case late <= 0:
		return math.Inf(1)
	case early <= 0:
		return math.Inf(-1)
	}
	return 10 * math.Log10(early/late)
}

// decay returns the backward-integrated energy decay curve in dB re total.
func (e energy) decay() []float64 {
	n := len(e.cum) - 1
	out := make([]float64, n)
	total := e.total()
	if total <= 0 {
		return out
	}
	for i := range out {
		ratio := (total - e.cum[i]) / total
		if ratio <= 0 {
			out[i] = decayFloorDB
		} else {
			out[i] = 10 * math.Log10(ratio)
		}
	}
	return out
}

func (a *Analyzer) validate(ir []float64) error {
	if len(ir) == 0 {
		return ErrEmptyIR
	}
	if a.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	return nil
}

// Analyze computes all metrics. Analysis starts at the absolute peak so that
// leading silence before the direct sound is ignored.
func (a *Analyzer) Analyze(ir []float64) (Metrics, error) {
	if err := a.validate(ir); err != nil {
		return Metrics{}, err
	}

	peak := peakIndex(ir)
	tail := ir[peak:]
	e := newEnergy(tail, a.SampleRate)
	curve := e.decay()

	m := Metrics{
		PeakIndex:  peak,
		CenterTime: a.centerTime(tail),
		D50:        e.definition(50),
		D80:        e.definition(80),
		C50:        e.clarity(50),
		C80:        e.clarity(80),
		EDT:        a.reverbTime(curve, 0, -10),
		T20:        a.reverbTime(curve, -5, -25),
		T30:        a.reverbTime(curve, -5, -35),
	}

	m.RT60 = m.T30
	if m.RT60 <= 0 {
		m.RT60 = m.T20
	}

	return m, nil
}

// AnalyzeStereo analyses both channels of a stereo response.
func (a *Analyzer) AnalyzeStereo(left, right []float64) (Metrics, Metrics, error) {
	l, err := a.Analyze(left)
	if err != nil {
		return Metrics{}, Metrics{}, fmt.Errorf("ir: left channel: %w", err)
	}
	r, err := a.Analyze(right)
	if err != nil {
		return Metrics{}, Metrics{}, fmt.Errorf("ir: right channel: %w", err)
	}
	return l, r, nil
}

// DecayCurve returns the Schroeder backward integral of ir in dB,
//
//	S(t) = 10*log10( ∫_t^∞ h²(τ) dτ / ∫_0^∞ h²(τ) dτ )
//
// An all-zero response yields an all-zero curve.
func (a *Analyzer) DecayCurve(ir []float64) ([]float64, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyIR
	}
	return newEnergy(ir, a.SampleRate).decay(), nil
}

// RT60 returns the T30 estimate, or T20 when the response does not decay
// 35 dB.
func (a *Analyzer) RT60(ir []float64) (float64, error) {
	if err := a.validate(ir); err != nil {
		return 0, err
	}

	curve := newEnergy(ir, a.SampleRate).decay()
	if rt := a.reverbTime(curve, -5, -35); rt > 0 {
		return rt, nil
	}
	if rt := a.reverbTime(curve, -5, -25); rt > 0 {
		return rt, nil
	}
	return 0, ErrNoDecay
}

// Definition returns D(t), the fraction of energy arriving before timeMs.
func (a *Analyzer) Definition(ir []float64, timeMs float64) (float64, error) {
	if err := a.validate(ir); err != nil {
		return 0, err
	}
	if timeMs <= 0 {
		return 0, ErrInvalidTime
	}
	return newEnergy(ir, a.SampleRate).definition(timeMs), nil
}

// Clarity returns C(t), the early-to-late energy ratio at timeMs in dB.
func (a *Analyzer) Clarity(ir []float64, timeMs float64) (float64, error) {
	if err := a.validate(ir); err != nil {
		return 0, err
	}
	if timeMs <= 0 {
		return 0, ErrInvalidTime
	}
	return newEnergy(ir, a.SampleRate).clarity(timeMs), nil
}

// CenterTime returns the energy centroid of ir in seconds.
func (a *Analyzer) CenterTime(ir []float64) (float64, error) {
	if err := a.validate(ir); err != nil {
		return 0, err
	}
	return a.centerTime(ir), nil
}

func (a *Analyzer) centerTime(ir []float64) float64 {
	var num, den float64
	for i, v := range ir {
		e := v * v
		num += float64(i) * e
		den += e
	}
	if den <= 0 {
		return 0
	}
	return num / den / a.SampleRate
}

// reverbTime fits a line to the decay curve between startDB and endDB and
// extrapolates it to -60 dB.
func (a *Analyzer) reverbTime(curve []float64, startDB, endDB float64) float64 {
	start, end := -1, -1
	for i, v := range curve {
		if start < 0 && v <= startDB {
			start = i
		}
		if start >= 0 && v <= endDB {
			end = i
			break
		}
	}
	if start < 0 || end <= start {
		return 0
	}

	var sumX, sumY, sumXX, sumXY float64
	for i := start; i <= end; i++ {
		x := float64(i - start)
		y := curve[i]
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}

	n := float64(end - start + 1)
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}

	slope := (n*sumXY - sumX*sumY) / denom // dB per sample
	if slope >= 0 {
		return 0
	}

	return -60 / (slope * a.SampleRate)
}

func peakIndex(ir []float64) int {
	idx, peak := 0, 0.0
	for i, v := range ir {
		if av := math.Abs(v); av > peak {
			idx, peak = i, av
		}
	}
	return idx
}
