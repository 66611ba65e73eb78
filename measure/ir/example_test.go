package ir_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-reverb/measure/ir"
)

func ExampleAnalyzer_Analyze() {
	// Exponential decay reaching -60 dB after one second.
	sampleRate := 48000.0
	k := math.Log(1000)

	response := make([]float64, int(sampleRate*3))
	for i := range response {
		response[i] = math.Exp(-k * float64(i) / sampleRate)
	}

	m, err := ir.NewAnalyzer(sampleRate).Analyze(response)
	if err != nil {
		panic(err)
	}

	fmt.Printf("RT60 = %.2f s\n", m.RT60)
	fmt.Printf("D50  = %.3f\n", m.D50)

	// Output:
	// RT60 = 1.00 s
	// D50  = 0.499
}
