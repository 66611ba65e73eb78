package reverb

import (
	"github.com/cwbudde/algo-vecmath"
	"golang.org/x/sync/errgroup"
)

// schroederDryGain boosts the direct path ahead of normalization.
const schroederDryGain = 5

// Comb and allpass distances as multiples of the base distance. At the
// default 10 m these are combs at 5, 3 and 10 m and allpasses at 10 then 5 m.
var (
	schroederCombScale    = [...]float64{0.5, 0.3, 1.0}
	schroederAllpassScale = [...]float64{1.0, 0.5}
)

// Schroeder runs a comb bank over x, diffuses the bank output through two
// cascaded allpasses and mixes it with a boosted dry path:
//
//	y = 5*x + Allpass(Allpass(combs, d), d/2)
//
// Each comb reads the unmodified input. By default only the last comb
// computed feeds the allpasses; WithCombMode(CombsSum) feeds their sum.
// The result is normalized.
func Schroeder(x []float64, sampleRate int, distance float64, opts ...Option) []float64 {
	cfg := newConfig(opts)
	cfg.stage("schroeder", distance, 0, len(x))

	if len(x) == 0 {
		return []float64{}
	}

	bank := make([][]float64, len(schroederCombScale))

	var g errgroup.Group
	for i, scale := range schroederCombScale {
		g.Go(func() error {
			bank[i] = cfg.comb(x, sampleRate, scale*distance)
			return nil
		})
	}
	_ = g.Wait()

	combs := bank[len(bank)-1]
	if cfg.combMode == CombsSum {
		combs = make([]float64, len(x))
		for _, out := range bank {
			vecmath.AddBlockInPlace(combs, out)
		}
	}

	diffused := combs
	for _, scale := range schroederAllpassScale {
		diffused = cfg.allpass(diffused, sampleRate, scale*distance)
	}

	y := make([]float64, len(x))
	vecmath.ScaleBlock(y, x, schroederDryGain)
	vecmath.AddBlockInPlace(y, diffused)

	Normalize(y)
	return y
}
