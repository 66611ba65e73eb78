package delay

import (
	"math"
	"testing"
)

func TestFromDistance(t *testing.T) {
	tests := []struct {
		name       string
		meters     float64
		sampleRate int
		want       int
	}{
		{name: "one second of travel", meters: 343, sampleRate: 44100, want: 44100},
		{name: "comb default", meters: 20, sampleRate: 44100, want: 2571},
		{name: "simple default", meters: 22, sampleRate: 44100, want: 2828},
		{name: "schroeder short comb", meters: 6, sampleRate: 44100, want: 771},
		{name: "floors", meters: 1, sampleRate: 8000, want: 23},
		{name: "zero distance", meters: 0, sampleRate: 44100, want: 0},
		{name: "negative distance", meters: -5, sampleRate: 44100, want: 0},
		{name: "nan", meters: math.NaN(), sampleRate: 44100, want: 0},
		{name: "zero rate", meters: 10, sampleRate: 0, want: 0},
		{name: "inf saturates", meters: math.Inf(1), sampleRate: 44100, want: math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromDistance(tt.meters, tt.sampleRate); got != tt.want {
				t.Fatalf("FromDistance(%v, %d) = %d, want %d", tt.meters, tt.sampleRate, got, tt.want)
			}
		})
	}
}

func TestDistanceInvertsFromDistance(t *testing.T) {
	for _, samples := range []int{1, 100, 2571, 44100} {
		m := Distance(samples, 44100)
		// Nudge up to survive floor() on values that land exactly on an integer.
		if got := FromDistance(m+1e-9, 44100); got != samples {
			t.Fatalf("FromDistance(Distance(%d)) = %d", samples, got)
		}
	}

	if Distance(10, 0) != 0 || Distance(-1, 44100) != 0 {
		t.Fatal("expected 0 for degenerate arguments")
	}
}
