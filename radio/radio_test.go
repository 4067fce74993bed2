package radio

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/jrwynneiii/rxcore/config"
	"github.com/jrwynneiii/rxcore/message"
	"github.com/jrwynneiii/rxcore/samples"
)

func TestDecodeStreamTypes(t *testing.T) {
	cs16 := make([]byte, 8)
	binary.LittleEndian.PutUint16(cs16[0:], uint16(1000))
	binary.LittleEndian.PutUint16(cs16[2:], uint16(0xffff))
	got := CS16.Decode(nil, cs16)
	if len(got) != 2 || got[0] != (samples.Sample{I: 1000, Q: -1}) {
		t.Fatalf("unexpected cs16 decode %v", got)
	}

	cf32 := make([]byte, 8)
	binary.LittleEndian.PutUint32(cf32[0:], math.Float32bits(0.5))
	binary.LittleEndian.PutUint32(cf32[4:], math.Float32bits(-0.25))
	if got := CF32.Decode(nil, cf32); got[0] != (samples.Sample{I: 16384, Q: -8192}) {
		t.Fatalf("unexpected cf32 decode %v", got)
	}

	if got := CU8.Decode(nil, []byte{128, 255}); got[0] != (samples.Sample{I: 0, Q: 127 << 8}) {
		t.Fatalf("unexpected cu8 decode %v", got)
	}
	if got := CS8.Decode(nil, []byte{0xff, 1}); got[0] != (samples.Sample{I: -256, Q: 256}) {
		t.Fatalf("unexpected cs8 decode %v", got)
	}
}

func TestParseStreamType(t *testing.T) {
	if _, err := ParseStreamType("cs12"); err == nil {
		t.Fatalf("expected an error for an unknown type")
	}
	if st, _ := ParseStreamType("complex64"); st != CF32 {
		t.Fatalf("expected CF32")
	}
}

func TestReaderRadioStreamsToFifo(t *testing.T) {
	raw := make([]byte, 4*1000)
	for i := 0; i < 1000; i++ {
		binary.LittleEndian.PutUint16(raw[4*i:], uint16(i))
	}
	conf := config.RadioConf{Driver: "file", SampleRate: 48000, ChunkSize: 256}
	r, err := NewFromReader(conf, CS16, bytes.NewReader(raw), 2048)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()
	select {
	case <-r.EOF():
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for end of input")
	}
	if r.Fifo().Fill() != 1000 {
		t.Fatalf("expected 1000 samples buffered, got %d", r.Fifo().Fill())
	}
	out := make([]samples.Sample, 1000)
	r.Fifo().Read(out)
	if out[999].I != 999 {
		t.Fatalf("expected last sample 999, got %d", out[999].I)
	}
}

func TestDecimationNotifiesEngine(t *testing.T) {
	conf := config.RadioConf{Driver: "synth", SampleRate: 96000, Frequency: 500000}
	r, err := NewFromGenerator(conf, NewSynth(96000, 1), 1024)
	if err != nil {
		t.Fatal(err)
	}
	q := message.NewQueue("engine")
	r.SetEngineQueue(q)
	if err := r.ConfigureDecimation(message.ConfigureDecimation{Log2Decim: 1, FcPos: message.Infradyne}); err != nil {
		t.Fatal(err)
	}
	m, ok := q.Pop()
	if !ok {
		t.Fatalf("expected a signal notification")
	}
	sn := m.(message.SignalNotification)
	if sn.SampleRate != 48000 || sn.CenterFrequency != 524000 {
		t.Fatalf("unexpected notification %#v", sn)
	}
	if r.SampleRate() != 48000 {
		t.Fatalf("expected decimated rate 48000, got %d", r.SampleRate())
	}
}

func TestRetuneNotifiesEngine(t *testing.T) {
	conf := config.RadioConf{Driver: "synth", SampleRate: 96000, Frequency: 500000}
	r, err := NewFromGenerator(conf, NewSynth(96000, 1), 1024)
	if err != nil {
		t.Fatal(err)
	}
	q := message.NewQueue("engine")
	r.SetEngineQueue(q)
	r.SetCenterFrequency(518000)
	m, ok := q.Pop()
	if !ok {
		t.Fatalf("expected a signal notification")
	}
	sn := m.(message.SignalNotification)
	if sn.SampleRate != 96000 || sn.CenterFrequency != 518000 {
		t.Fatalf("unexpected notification %#v", sn)
	}
	if r.CenterFrequency() != 518000 {
		t.Fatalf("expected center frequency 518000, got %d", r.CenterFrequency())
	}
}

func TestSynthFSKTones(t *testing.T) {
	s := NewSynth(1000, 1)
	s.FSK = &FSK{Offset: 0, Shift: 170, Baud: 100, Amplitude: 1, Bits: []byte{1, 0}}
	out := s.Complex(nil, 20)
	step := func(i int) float64 {
		a, b := complex128(out[i]), complex128(out[i+1])
		return math.Atan2(imag(b*complex(real(a), -imag(a))), real(b*complex(real(a), -imag(a))))
	}
	if got := step(3); math.Abs(got-2*math.Pi*85/1000) > 1e-3 {
		t.Fatalf("expected mark tone step, got %f", got)
	}
	if got := step(13); math.Abs(got+2*math.Pi*85/1000) > 1e-3 {
		t.Fatalf("expected space tone step, got %f", got)
	}
}

func TestPairPhaseDelta(t *testing.T) {
	p := NewPair(48000, 1000, 45)
	a, b := p.Generate(16)
	for i := range a {
		ca, cb := complex128(a[i].Complex()), complex128(b[i].Complex())
		prod := cb * complex(real(ca), -imag(ca))
		if got := math.Atan2(imag(prod), real(prod)) * 180 / math.Pi; math.Abs(got-45) > 0.1 {
			t.Fatalf("sample %d: expected 45 degrees, got %f", i, got)
		}
	}
}

type countingSink struct{ n int }

func (c *countingSink) FeedSync(blocks [][]samples.Sample) { c.n += len(blocks[0]) }

func TestPairRunStopsOnCancel(t *testing.T) {
	p := NewPair(48000, 1000, 0)
	p.BlockSize = 100
	ctx, cancel := context.WithCancel(context.Background())
	sink := &countingSink{}
	done := make(chan struct{})
	go func() {
		p.Run(ctx, sink)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("pair generator did not stop")
	}
}
