package main

import "time"

var cli struct {
	Verbose bool   `help:"Prints debug output by default"`
	Profile bool   `help:"Output a pprof profile"`
	Config  string `help:"Config file to use instead of searching the default paths" type:"path"`

	Navtex struct {
		File       string        `help:"Pass a file of IQ samples instead of the synthesizer" type:"existingfile"`
		SampleType string        `help:"Sample type of --file, overrides radio.sample_type (cu8, cs8, cs16, cf32)"`
		Frequency  float64       `help:"Center frequency of the source in Hz, overrides radio.frequency"`
		Duration   time.Duration `help:"Stop after this long, 0 runs until interrupted or the file ends"`
	} `cmd:"" help:"Decode NAVTEX broadcasts"`
	Doa struct {
		PhaseDelta *float64      `help:"Phase delta of the synthetic antenna pair in degrees"`
		Duration   time.Duration `help:"Stop after this long, 0 runs until interrupted"`
	} `cmd:"" help:"Run the interferometer on a synthetic antenna pair"`
}
