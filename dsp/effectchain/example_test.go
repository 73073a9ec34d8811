package effectchain_test

import (
	"fmt"

	"github.com/cwbudde/bassforge/dsp/effectchain"
	"github.com/cwbudde/bassforge/dsp/keytrack"
	"github.com/cwbudde/bassforge/dsp/module"
)

func ExampleChain() {
	chain := effectchain.New(nil)

	err := chain.Prepare(module.Spec{SampleRate: 48000, MaxBlockSize: 256, Channels: 2})
	if err != nil {
		panic(err)
	}

	err = chain.LoadConfig([]byte(`{
		"routing": "serial",
		"slots": [
			{"type": "fractal-bank", "params": {"depth": 4}},
			{"type": "distortion", "params": {"algorithm": "soft"}}
		]
	}`))
	if err != nil {
		panic(err)
	}

	buf := module.NewBuffer(2, 256)
	events := []keytrack.Event{{Kind: keytrack.NoteOn, Note: 33, Velocity: 100}}
	chain.ProcessBlock(buf, events)

	for i := range effectchain.NumSlots {
		fmt.Printf("slot %d: %q\n", i+1, chain.SlotType(i))
	}

	fmt.Printf("tracked: %.1f Hz\n", chain.Tracker().Frequency())

	// Output:
	// slot 1: "fractal-bank"
	// slot 2: "distortion"
	// slot 3: ""
	// slot 4: ""
	// tracked: 55.0 Hz
}

func ExampleParseRouting() {
	r, err := effectchain.ParseRouting("mid-side")
	fmt.Println(r, err)
	// Output: midside <nil>
}
