package resample

import (
	"errors"
	"fmt"
	"math"
)

// polyphase is a prototype low-pass split into up branches; branch p holds
// taps p, p+up, p+2up, ...
type polyphase struct {
	taps   []float64
	phases [][]float64
}

func designPolyphase(up, down int, cfg config) (polyphase, error) {
	if up <= 0 || down <= 0 {
		return polyphase{}, ErrInvalidRatio
	}

	if cfg.tapsPerPhase <= 0 {
		return polyphase{}, errors.New("resample: taps per phase must be > 0")
	}

	nTaps := cfg.tapsPerPhase * up

	// Cutoff relative to the upsampled rate, below both Nyquist limits.
	fc := (0.5 / float64(max(up, down))) * cfg.cutoffScale
	if fc <= 0 || fc >= 0.5 {
		return polyphase{}, fmt.Errorf("resample: invalid cutoff %.6f", fc)
	}

	taps := make([]float64, nTaps)
	center := 0.5 * float64(nTaps-1)

	var sum float64
	for n := range taps {
		t := float64(n) - center
		taps[n] = 2 * fc * sinc(2*fc*t) * kaiserWindow(n, nTaps, cfg.kaiserBeta)
		sum += taps[n]
	}

	if sum == 0 {
		return polyphase{}, errors.New("resample: designed zero-sum filter")
	}

	// Unity DC gain per branch after zero-stuffing by up.
	scale := float64(up) / sum
	for i := range taps {
		taps[i] *= scale
	}

	phases := make([][]float64, up)
	for p := range phases {
		branch := make([]float64, 0, cfg.tapsPerPhase)
		for i := p; i < nTaps; i += up {
			branch = append(branch, taps[i])
		}
		phases[p] = branch
	}

	return polyphase{taps: taps, phases: phases}, nil
}

// approximateRatio returns the best continued-fraction approximation of v
// with denominator at most maxDen.
func approximateRatio(v float64, maxDen int) (num, den int) {
	if maxDen <= 0 {
		maxDen = 4096
	}

	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1, 1
	}

	p0, q0 := 1.0, 0.0
	p1, q1 := math.Floor(v), 1.0
	x := v

	for {
		frac := x - math.Floor(x)
		if frac == 0 {
			break
		}

		x = 1 / frac
		a := math.Floor(x)

		p2 := a*p1 + p0
		q2 := a*q1 + q0
		if q2 > float64(maxDen) {
			break
		}

		p0, q0 = p1, q1
		p1, q1 = p2, q2
	}

	num = int(math.Round(p1))
	den = int(math.Round(q1))
	if num <= 0 || den <= 0 {
		return 1, 1
	}

	g := gcd(num, den)

	return num / g, den / g
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}

	pix := math.Pi * x

	return math.Sin(pix) / pix
}

func kaiserWindow(i, n int, beta float64) float64 {
	if n <= 1 || beta == 0 {
		return 1
	}

	t := 2*float64(i)/float64(n-1) - 1
	a := math.Sqrt(math.Max(0, 1-t*t))

	return besselI0(beta*a) / besselI0(beta)
}

// besselI0 evaluates the modified Bessel function of the first kind, order 0,
// by its power series.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0

	x2 := (x * x) / 4
	for k := 1; k < 64; k++ {
		term *= x2 / float64(k*k)

		sum += term
		if term < 1e-16*sum {
			break
		}
	}

	return sum
}
