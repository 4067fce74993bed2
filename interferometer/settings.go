package interferometer

import (
	"fmt"
	"strings"

	"github.com/jrwynneiii/rxcore/config"
	"github.com/jrwynneiii/rxcore/message"
)

type CorrelationType int

const (
	CorrelationA CorrelationType = iota
	CorrelationB
	// CorrelationSum is A+B.
	CorrelationSum
	// CorrelationDiff is A-B.
	CorrelationDiff
	// CorrelationProduct is A times the conjugate of B, sample by sample.
	CorrelationProduct
	// CorrelationFFT is the cross power spectrum.
	CorrelationFFT
	// CorrelationIFFT is the centred time domain cross correlation.
	CorrelationIFFT
)

var correlationNames = []string{"a", "b", "sum", "diff", "product", "fft", "ifft"}

func (c CorrelationType) String() string {
	if c < 0 || int(c) >= len(correlationNames) {
		return fmt.Sprintf("CorrelationType(%d)", int(c))
	}
	return correlationNames[c]
}

func ParseCorrelationType(s string) (CorrelationType, error) {
	for i, name := range correlationNames {
		if strings.EqualFold(s, name) {
			return CorrelationType(i), nil
		}
	}
	return CorrelationFFT, fmt.Errorf("unknown correlation type %q", s)
}

// UsesFFT reports whether the type works on whole FFT blocks.
func (c CorrelationType) UsesFFT() bool {
	return c == CorrelationFFT || c == CorrelationIFFT
}

type Settings struct {
	Correlation CorrelationType
	FFTSize     int
	// Phase is the correction applied to input B, in degrees.
	Phase          float64
	MagThresholdDB float64
	Averaging      int
	Reverse        bool

	// AntennaAzimuth is the bearing of the A to B baseline in degrees.
	AntennaAzimuth float64
	// AntennaDistance is the baseline length in wavelengths.
	AntennaDistance float64
}

func SettingsFromConf(c config.InterferometerConf) (Settings, error) {
	ct, err := ParseCorrelationType(c.Correlation)
	if err != nil {
		return Settings{}, err
	}
	s := Settings{
		Correlation:     ct,
		FFTSize:         c.FFTSize,
		Phase:           c.Phase,
		MagThresholdDB:  c.MagThresholdDB,
		Averaging:       c.Averaging,
		Reverse:         c.Reverse,
		AntennaAzimuth:  c.AntennaAzimuth,
		AntennaDistance: c.AntennaDistance,
	}
	return s, s.Validate()
}

func DefaultSettings() Settings {
	s, _ := SettingsFromConf(config.Default().Interferometer)
	return s
}

func (s Settings) Validate() error {
	if s.FFTSize < 2 {
		return fmt.Errorf("interferometer: fft size %d too small", s.FFTSize)
	}
	if s.AntennaDistance <= 0 {
		return fmt.Errorf("interferometer: antenna distance must be positive")
	}
	return nil
}

// Configure carries new settings to an interferometer.
type Configure struct {
	Settings Settings
	Force    bool
}

func (Configure) Kind() message.Kind { return message.KindConfigureInterferometer }
