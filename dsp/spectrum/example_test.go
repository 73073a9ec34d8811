package spectrum_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/bassforge/dsp/spectrum"
)

func ExampleAmplitude() {
	x := make([]float64, 4800)
	for i := range x {
		x[i] = 0.5 * math.Sin(2*math.Pi*100*float64(i)/48000)
	}

	fmt.Printf("%.2f\n", spectrum.Amplitude(x, 100, 48000))
	// Output:
	// 0.50
}
