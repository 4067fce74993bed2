package navtex

import (
	"fmt"

	"github.com/jrwynneiii/rxcore/config"
	"github.com/jrwynneiii/rxcore/message"
)

// ChannelSampleRate is the rate the receiver runs at after channelization.
const ChannelSampleRate = 1000

// Filter selects how the mark and space correlator outputs are smoothed.
type Filter int

const (
	// FilterAverage integrates over one bit period.
	FilterAverage Filter = iota
	// FilterLowPass uses a FIR low pass at the baud rate.
	FilterLowPass
)

func (f Filter) String() string {
	if f == FilterLowPass {
		return "lowpass"
	}
	return "average"
}

func ParseFilter(s string) (Filter, error) {
	switch s {
	case "average", "":
		return FilterAverage, nil
	case "lowpass", "fir":
		return FilterLowPass, nil
	}
	return FilterAverage, fmt.Errorf("unknown navtex filter %q", s)
}

type Settings struct {
	FrequencyOffset int64
	Baud            float64
	FrequencyShift  float64
	RFBandwidth     float64
	Filter          Filter
	ATC             bool
	SpaceHigh       bool

	MaxConsecutiveErrors int
	ErrorRateThreshold   float64
	MinCharsForErrorRate int
	JunkLimit            int

	// FilterStation drops messages from any other B1 identity when set.
	FilterStation string
	NavArea       int
}

func DefaultSettings() Settings {
	s, _ := SettingsFromConf(config.Default().Navtex)
	return s
}

func SettingsFromConf(c config.NavtexConf) (Settings, error) {
	filter, err := ParseFilter(c.Filter)
	if err != nil {
		return Settings{}, err
	}
	s := Settings{
		FrequencyOffset:      c.FrequencyOffset,
		Baud:                 c.Baud,
		FrequencyShift:       c.FrequencyShift,
		RFBandwidth:          c.RFBandwidth,
		Filter:               filter,
		ATC:                  c.ATC,
		SpaceHigh:            c.SpaceHigh,
		MaxConsecutiveErrors: c.MaxConsecutiveErrors,
		ErrorRateThreshold:   c.ErrorRateThreshold,
		MinCharsForErrorRate: c.MinCharsForErrorRate,
		JunkLimit:            c.JunkLimit,
		FilterStation:        c.FilterStation,
		NavArea:              c.NavArea,
	}
	return s, s.Validate()
}

func (s Settings) Validate() error {
	if s.Baud <= 0 || s.Baud > ChannelSampleRate/4 {
		return fmt.Errorf("navtex: baud %v out of range", s.Baud)
	}
	if s.FrequencyShift <= 0 || s.FrequencyShift >= ChannelSampleRate/2 {
		return fmt.Errorf("navtex: frequency shift %v out of range", s.FrequencyShift)
	}
	if s.RFBandwidth <= 0 || s.RFBandwidth >= ChannelSampleRate {
		return fmt.Errorf("navtex: rf bandwidth %v out of range", s.RFBandwidth)
	}
	return nil
}

// SamplesPerBit at the channel rate.
func (s Settings) SamplesPerBit() int {
	return max(int(ChannelSampleRate/s.Baud+0.5), 2)
}

// Configure carries new settings to a demod. Only the fields that changed
// are applied unless Force is set.
type Configure struct {
	Settings Settings
	Force    bool
}

func (Configure) Kind() message.Kind { return message.KindConfigureNavtex }
