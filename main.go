package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/rxcore/config"
	"github.com/jrwynneiii/rxcore/engine"
	"github.com/jrwynneiii/rxcore/interferometer"
	"github.com/jrwynneiii/rxcore/navtex"
	"github.com/jrwynneiii/rxcore/radio"
	"github.com/jrwynneiii/rxcore/report"
)

func main() {
	flags := kong.Parse(&cli,
		kong.Name("rxcore"),
		kong.Description("Software defined radio receive core: NAVTEX decoding and two antenna direction finding."),
		kong.UsageOnError(),
	)

	conf, _, err := config.Load(cli.Config)
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}
	if lvl, err := log.ParseLevel(conf.Log.Level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warnf("Unknown log level %q, using info", conf.Log.Level)
	}
	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	if cli.Profile {
		prof, err := os.Create("./cpu.pprof")
		if err != nil {
			log.Fatalf("Could not create profile: %v", err)
		}
		pprof.StartCPUProfile(prof)
		defer pprof.StopCPUProfile()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch flags.Command() {
	case "navtex":
		err = runNavtex(ctx, conf)
	case "doa":
		err = runDOA(ctx, conf)
	default:
		err = fmt.Errorf("command not recognized: %s", flags.Command())
	}
	if err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}

func withDuration(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// navtexSource opens the configured IQ file, or builds a synthesizer sending
// the configured text.
func navtexSource(conf *config.Conf) (*radio.Radio, func(), error) {
	rconf := conf.Radio
	path := cli.Navtex.File
	if path == "" {
		path = rconf.File
	}
	if path != "" {
		st := rconf.SampleType
		if cli.Navtex.SampleType != "" {
			st = cli.Navtex.SampleType
		}
		stype, err := radio.ParseStreamType(st)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		rconf.Driver = "file"
		rad, err := radio.NewFromReader(rconf, stype, f, conf.Engine.FifoSize)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return rad, func() { f.Close() }, nil
	}

	codes, err := navtex.EncodeText(conf.Synth.Text)
	if err != nil {
		return nil, nil, fmt.Errorf("synth text: %w", err)
	}
	synth := radio.NewSynth(rconf.SampleRate, time.Now().UnixNano())
	synth.FSK = &radio.FSK{
		Offset:    conf.Synth.Offset,
		Shift:     conf.Navtex.FrequencyShift,
		Baud:      conf.Navtex.Baud,
		Amplitude: conf.Synth.Amplitude,
		Bits:      navtex.Bits(navtex.Interleave(codes, 20, 10)),
		Repeat:    conf.Synth.Repeat,
		Idle:      true,
	}
	synth.Noise = conf.Synth.NoiseAmplitude
	rconf.Driver = "synth"
	rad, err := radio.NewFromGenerator(rconf, synth, conf.Engine.FifoSize)
	return rad, func() {}, err
}

func runNavtex(ctx context.Context, conf *config.Conf) error {
	settings, err := navtex.SettingsFromConf(conf.Navtex)
	if err != nil {
		return err
	}
	rad, closeSource, err := navtexSource(conf)
	if err != nil {
		return err
	}
	defer closeSource()

	ctx, cancel := withDuration(ctx, cli.Navtex.Duration)
	defer cancel()

	sink := report.NewLogSink(nil)
	sink.NavArea = settings.NavArea
	collector := report.NewCollector()
	demod, err := navtex.NewDemod("navtex", settings, rad.SampleRate(), conf.Navtex.FifoSize, report.Tee{sink, collector})
	if err != nil {
		return err
	}

	eng := engine.New("rxcore", conf.Engine.DCOffsetCorrection, conf.Engine.IQImbalanceCorrection)
	// the engine outlives ctx so acquisition can be stopped cleanly below
	if err := eng.Start(context.Background()); err != nil {
		return err
	}
	defer eng.Close()
	if err := eng.SetSource(ctx, rad); err != nil {
		return err
	}
	if err := eng.AddSink(ctx, demod); err != nil {
		return err
	}
	if cli.Navtex.Frequency > 0 {
		// bound to the engine by now, so the demodulator hears about it
		rad.SetCenterFrequency(cli.Navtex.Frequency)
	}
	if _, err := eng.InitAcquisition(ctx); err != nil {
		return err
	}
	if _, err := eng.StartAcquisition(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-rad.EOF():
		// let the demodulator drain what is left in its FIFO
		time.Sleep(500 * time.Millisecond)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if _, err := eng.StopAcquisition(stopCtx); err != nil {
		log.Warnf("Stopping acquisition: %v", err)
	}
	log.Infof("Decoded %d messages, %d samples dropped", len(collector.Messages()), demod.Dropped())
	return nil
}

func runDOA(ctx context.Context, conf *config.Conf) error {
	settings, err := interferometer.SettingsFromConf(conf.Interferometer)
	if err != nil {
		return err
	}
	ctx, cancel := withDuration(ctx, cli.Doa.Duration)
	defer cancel()

	delta := conf.Synth.PhaseDelta
	if cli.Doa.PhaseDelta != nil {
		delta = *cli.Doa.PhaseDelta
	}
	pair := radio.NewPair(conf.Radio.SampleRate, conf.Synth.Offset, delta)
	pair.Noise = conf.Synth.NoiseAmplitude
	pair.Amplitude = conf.Synth.Amplitude
	pair.Realtime = conf.Radio.Realtime

	sink := report.NewLogSink(nil)
	if !pair.Realtime {
		sink.PhaseEvery = 100
	}
	collector := report.NewCollector()
	collector.Limit = 1000
	it, err := interferometer.New("doa", settings, conf.Interferometer.FifoSize, report.Tee{sink, collector})
	if err != nil {
		return err
	}
	if err := it.Start(); err != nil {
		return err
	}
	defer it.Stop()

	log.Infof("Simulating a %.1f degree phase delta, expecting %.1f degrees", delta, -delta)
	pair.Run(ctx, it)

	if last, ok := collector.LastPhase(); ok {
		log.Infof("Last phase %.2f degrees, DOA %.1f, azimuth %.1f or %.1f", last.PhaseDeg, last.DOA, last.PosAzimuth, last.NegAzimuth)
	}
	if r, ok := collector.LastCorrelation(); ok {
		pos, mag := r.Peak()
		log.Infof("Last %s correlation peaks at %d with magnitude %g", r.Type, pos, mag)
	}
	log.Infof("%d phase reports, %d samples dropped", len(collector.Phases()), it.Dropped())
	return nil
}
