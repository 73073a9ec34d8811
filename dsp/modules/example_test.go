package modules_test

import (
	"fmt"

	"github.com/cwbudde/bassforge/dsp/module"
	"github.com/cwbudde/bassforge/dsp/modules"
)

func ExampleFractal_Centers() {
	f := modules.NewFractal()
	f.ApplyParam("type", 2)

	if err := f.Prepare(module.Spec{SampleRate: 48000, MaxBlockSize: 256, Channels: 1}); err != nil {
		panic(err)
	}

	f.Process(module.Context{}, module.NewBuffer(1, 256))

	centers := make([]float64, modules.MaxFractalDepth)
	for _, c := range centers[:f.Centers(centers)] {
		fmt.Printf("%.1f Hz\n", c)
	}

	// Output:
	// 100.0 Hz
	// 161.8 Hz
	// 261.8 Hz
	// 423.6 Hz
}

func ExampleBitCrusher() {
	b := modules.NewBitCrusher()
	b.ApplyParam("bits", modules.MaxCrushBits)

	if err := b.Prepare(module.Spec{SampleRate: 48000, MaxBlockSize: 4, Channels: 1}); err != nil {
		panic(err)
	}

	buf := module.Buffer{{0.2, 0.7, -0.8, 0.1}}
	b.Process(module.Context{}, buf)
	fmt.Println(buf[0])

	// Output: [0.2 0.7 -0.8 0.1]
}
