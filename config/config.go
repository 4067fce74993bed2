package config

type Conf struct {
	Log            LogConf            `koanf:"log"`
	Engine         EngineConf         `koanf:"engine"`
	Radio          RadioConf          `koanf:"radio"`
	Synth          SynthConf          `koanf:"synth"`
	Navtex         NavtexConf         `koanf:"navtex"`
	Interferometer InterferometerConf `koanf:"interferometer"`
}

type LogConf struct {
	Level string `koanf:"level"`
}

type EngineConf struct {
	DCOffsetCorrection    bool `koanf:"dc_offset_correction"`
	IQImbalanceCorrection bool `koanf:"iq_imbalance_correction"`
	FifoSize              int  `koanf:"fifo_size"`
}

type RadioConf struct {
	Driver     string  `koanf:"driver"`
	File       string  `koanf:"file"`
	Frequency  float64 `koanf:"frequency"`
	SampleRate float64 `koanf:"sample_rate"`
	SampleType string  `koanf:"sample_type"`
	Decimation int     `koanf:"log2_decimation"`
	FcPos      string  `koanf:"fc_pos"`
	ChunkSize  uint    `koanf:"chunk_size"`
	Realtime   bool    `koanf:"realtime"`
}

type SynthConf struct {
	Text           string  `koanf:"text"`
	Offset         float64 `koanf:"offset"`
	Amplitude      float64 `koanf:"amplitude"`
	NoiseAmplitude float64 `koanf:"noise_amplitude"`
	Repeat         bool    `koanf:"repeat"`
	PhaseDelta     float64 `koanf:"phase_delta"`
}

type NavtexConf struct {
	FrequencyOffset      int64   `koanf:"frequency_offset"`
	Baud                 float64 `koanf:"baud"`
	FrequencyShift       float64 `koanf:"frequency_shift"`
	RFBandwidth          float64 `koanf:"rf_bandwidth"`
	Filter               string  `koanf:"filter"`
	ATC                  bool    `koanf:"atc"`
	SpaceHigh            bool    `koanf:"space_high"`
	MaxConsecutiveErrors int     `koanf:"max_consecutive_errors"`
	ErrorRateThreshold   float64 `koanf:"error_rate_threshold"`
	MinCharsForErrorRate int     `koanf:"min_chars_for_error_rate"`
	JunkLimit            int     `koanf:"junk_limit"`
	FilterStation        string  `koanf:"filter_station"`
	NavArea              int     `koanf:"navarea"`
	FifoSize             int     `koanf:"fifo_size"`
}

type InterferometerConf struct {
	Correlation     string  `koanf:"correlation"`
	FFTSize         int     `koanf:"fft_size"`
	Phase           float64 `koanf:"phase"`
	MagThresholdDB  float64 `koanf:"mag_threshold_db"`
	Averaging       int     `koanf:"averaging"`
	Reverse         bool    `koanf:"reverse"`
	AntennaAzimuth  float64 `koanf:"antenna_azimuth"`
	AntennaDistance float64 `koanf:"antenna_distance"`
	FifoSize        int     `koanf:"fifo_size"`
}

// Default returns the settings used for every key a config file leaves out.
func Default() Conf {
	return Conf{
		Log: LogConf{Level: "info"},
		Engine: EngineConf{
			DCOffsetCorrection:    true,
			IQImbalanceCorrection: false,
			FifoSize:              96000,
		},
		Radio: RadioConf{
			Driver:     "synth",
			Frequency:  517000,
			SampleRate: 48000,
			SampleType: "cs16",
			FcPos:      "center",
			ChunkSize:  4800,
			Realtime:   true,
		},
		Synth: SynthConf{
			Text:           "ZCZC FA01\nTEST MESSAGE\nNNNN",
			Offset:         1000,
			Amplitude:      0.5,
			NoiseAmplitude: 0.01,
			Repeat:         true,
			PhaseDelta:     30,
		},
		Navtex: NavtexConf{
			FrequencyOffset:      1000,
			Baud:                 100,
			FrequencyShift:       170,
			RFBandwidth:          340,
			Filter:               "average",
			ATC:                  true,
			MaxConsecutiveErrors: 5,
			ErrorRateThreshold:   0.5,
			MinCharsForErrorRate: 10,
			JunkLimit:            8,
			NavArea:              1,
			FifoSize:             48000,
		},
		Interferometer: InterferometerConf{
			Correlation:     "fft",
			FFTSize:         1024,
			MagThresholdDB:  -60,
			Averaging:       4,
			AntennaDistance: 0.5,
			FifoSize:        96000,
		},
	}
}
