package navtex

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrwynneiii/rxcore/message"
	"github.com/jrwynneiii/rxcore/radio"
)

const testText = "ZCZC FA01\nTEST MESSAGE 123\nNNNN"

func mustEncode(t *testing.T, text string) []byte {
	t.Helper()
	codes, err := EncodeText(text)
	if err != nil {
		t.Fatal(err)
	}
	return codes
}

// fskSamples renders a code stream as channel rate FSK.
func fskSamples(stream []byte, noise float64) []complex64 {
	s := radio.NewSynth(ChannelSampleRate, 3)
	s.Noise = noise
	s.FSK = &radio.FSK{Shift: 170, Baud: 100, Amplitude: 0.5, Bits: Bits(stream)}
	return s.Complex(nil, len(stream)*codeBits*ChannelSampleRate/100)
}

type collector struct {
	mu   sync.Mutex
	msgs []DecodedMessage
}

func (c *collector) PushNavtex(m DecodedMessage) {
	c.mu.Lock()
	c.msgs = append(c.msgs, m)
	c.mu.Unlock()
}

func (c *collector) get() []DecodedMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DecodedMessage(nil), c.msgs...)
}

func TestCodesHaveFourMarks(t *testing.T) {
	for code := 0; code < 1<<codeBits; code++ {
		if Decode(byte(code), false) == Invalid {
			continue
		}
		ones := 0
		for b := code; b != 0; b >>= 1 {
			ones += b & 1
		}
		if ones != 4 {
			t.Fatalf("code %#x has %d marks", code, ones)
		}
	}
	if Decode(0x80, false) != Invalid {
		t.Fatalf("expected 8 bit codes to be invalid")
	}
}

func TestEncodeInsertsShifts(t *testing.T) {
	codes := mustEncode(t, "A1A")
	want := []byte{0x71, 0x36, 0x3a, 0x2d, 0x71}
	if string(codes) != string(want) {
		t.Fatalf("expected %x, got %x", want, codes)
	}
	if _, err := EncodeText("a"); err == nil {
		t.Fatalf("expected an error for lower case")
	}
}

func decodeStream(s *SitorB, stream []byte) string {
	var out []rune
	for _, c := range stream {
		if r := s.Decode(c); r != Invalid {
			out = append(out, r)
		}
	}
	return string(out)
}

func TestSitorBCleanStream(t *testing.T) {
	s := NewSitorB()
	got := decodeStream(s, Interleave(mustEncode(t, "ZCZC 123"), 6, 3))
	if got != "ZCZC 123\x02\x02\x02" {
		t.Fatalf("unexpected text %q", got)
	}
	if s.Errors() != 0 {
		t.Fatalf("expected no errors, got %d", s.Errors())
	}
}

func TestSitorBSingleErrors(t *testing.T) {
	codes := mustEncode(t, "NAVTEX TEST")
	const phasing = 6
	tests := []struct {
		name string
		// flip returns the code with one bit in error, or the code unchanged.
		flip func(k int, dx bool, c byte) byte
		want int
	}{
		{"dx copies", func(k int, dx bool, c byte) byte {
			// The first three characters fill the DX buffer and must decode.
			if dx && k >= phasing+3 && k < phasing+len(codes) {
				return c ^ 0x01
			}
			return c
		}, len(codes) - 3},
		{"rx copies", func(k int, dx bool, c byte) byte {
			if !dx && k >= phasing+2 && k < phasing+2+len(codes) {
				return c ^ 0x40
			}
			return c
		}, len(codes)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := Interleave(codes, phasing, 3)
			for i := range stream {
				stream[i] = tt.flip(i/2, i%2 == 0, stream[i])
			}
			s := NewSitorB()
			got := decodeStream(s, stream)
			if got != "NAVTEX TEST\x02\x02\x02" {
				t.Fatalf("unexpected text %q", got)
			}
			if s.Errors() != tt.want {
				t.Fatalf("expected %d errors, got %d", tt.want, s.Errors())
			}
		})
	}
}

func TestSitorBBothCopiesBad(t *testing.T) {
	stream := Interleave(mustEncode(t, "ABCDE"), 4, 3)
	// Character index 3 ('D'): DX at position 2*(4+3), RX five positions later.
	stream[2*(4+3)] ^= 0x01
	stream[2*(4+3)+5] ^= 0x01
	s := NewSitorB()
	if got := decodeStream(s, stream); got != "ABC*E\x02\x02\x02" {
		t.Fatalf("unexpected text %q", got)
	}
	if s.Errors() != 2 {
		t.Fatalf("expected 2 errors, got %d", s.Errors())
	}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		text    string
		valid   bool
		station string
		typ     string
		body    string
	}{
		{"ZCZC FA01\nTEST MESSAGE\nNNNN", true, "F", "Pilot service messages", "TEST MESSAGE"},
		{"Z*ZC EB12\nGALE WARNING\nNN*N", true, "E", "Meteorological warning", "GALE WARNING"},
		{"GARBLED TEXT", false, "", "", "GARBLED TEXT"},
	}
	for _, tt := range tests {
		m := ParseMessage(tt.text)
		if m.Valid != tt.valid || m.StationID != tt.station || m.Type() != tt.typ || m.Body != tt.body {
			t.Fatalf("ParseMessage(%q) = %+v", tt.text, m)
		}
	}
	if got := Station(1, "E", 518000); got != "Niton" {
		t.Fatalf("expected Niton, got %q", got)
	}
	if got := Station(1, "", 518000); got != "" {
		t.Fatalf("expected no station for an empty id, got %q", got)
	}
}

func TestReceiverDecodesFSK(t *testing.T) {
	for _, filter := range []Filter{FilterAverage, FilterLowPass} {
		t.Run(filter.String(), func(t *testing.T) {
			s := DefaultSettings()
			s.Filter = filter
			var got []DecodedMessage
			r := NewReceiver(s, func(m DecodedMessage) { got = append(got, m) })
			r.now = func() time.Time { return time.Unix(1700000000, 0) }
			stream := Interleave(mustEncode(t, testText), 10, 4)
			x := fskSamples(stream, 0.05)
			for len(x) > 0 {
				n := min(len(x), 97)
				r.Process(x[:n])
				x = x[n:]
			}
			if len(got) != 1 {
				t.Fatalf("expected one message, got %d", len(got))
			}
			m := got[0]
			if m.Text != "ZCZC FA01\nTEST MESSAGE 123\nNNNN" {
				t.Fatalf("unexpected text %q", m.Text)
			}
			if m.Errors != 0 || !m.Message.Valid || m.Message.Body != "TEST MESSAGE 123" {
				t.Fatalf("unexpected message %+v", m)
			}
			// 0.5 amplitude tone: -6 dBFS.
			if m.RSSIdB < -7 || m.RSSIdB > -5 {
				t.Fatalf("unexpected rssi %f dB", m.RSSIdB)
			}
			if !m.Timestamp.Equal(time.Unix(1700000000, 0)) {
				t.Fatalf("unexpected timestamp %v", m.Timestamp)
			}
		})
	}
}

func TestReceiverCountsCorrectedErrors(t *testing.T) {
	codes := mustEncode(t, testText)
	stream := Interleave(codes, 10, 4)
	// Every other character after the DX fill loses one bit of its DX copy.
	flipped := 0
	for k := 10 + 3; k < 10+len(codes); k += 2 {
		stream[2*k] ^= 0x02
		flipped++
	}
	var got []DecodedMessage
	r := NewReceiver(DefaultSettings(), func(m DecodedMessage) { got = append(got, m) })
	r.Process(fskSamples(stream, 0))
	if len(got) != 1 {
		t.Fatalf("expected one message, got %d", len(got))
	}
	if got[0].Text != "ZCZC FA01\nTEST MESSAGE 123\nNNNN" {
		t.Fatalf("unexpected text %q", got[0].Text)
	}
	if got[0].Errors != flipped {
		t.Fatalf("expected %d errors, got %d", flipped, got[0].Errors)
	}
}

func TestReceiverResyncsOnErrorBurst(t *testing.T) {
	codes := mustEncode(t, testText)
	stream := Interleave(codes, 10, 4)
	// Destroy both copies of characters 5 to 14.
	for k := 15; k < 25; k++ {
		stream[2*k] ^= 0x01
		stream[2*k+1] ^= 0x01
	}
	var got []DecodedMessage
	r := NewReceiver(DefaultSettings(), func(m DecodedMessage) { got = append(got, m) })
	r.Process(fskSamples(stream, 0))
	if len(got) != 0 {
		t.Fatalf("expected no message, got %q", got[0].Text)
	}
	if r.Resyncs() == 0 {
		t.Fatalf("expected a resynchronisation")
	}
	if r.Synced() {
		t.Fatalf("expected the receiver to be searching")
	}
}

func TestReceiverStationFilter(t *testing.T) {
	s := DefaultSettings()
	s.FilterStation = "E"
	var got []DecodedMessage
	r := NewReceiver(s, func(m DecodedMessage) { got = append(got, m) })
	r.Process(fskSamples(Interleave(mustEncode(t, testText), 10, 4), 0))
	if len(got) != 0 {
		t.Fatalf("expected the message from F to be dropped")
	}
}

func TestDemodEndToEnd(t *testing.T) {
	const inRate = 48000
	stream := Interleave(mustEncode(t, testText), 10, 4)
	synth := radio.NewSynth(inRate, 5)
	synth.FSK = &radio.FSK{Offset: 1000, Shift: 170, Baud: 100, Amplitude: 0.5, Bits: Bits(stream)}
	synth.Noise = 0.01
	n := len(stream) * codeBits * inRate / 100

	sink := &collector{}
	d, err := NewDemod("navtex-test", DefaultSettings(), inRate, n+inRate, sink)
	if err != nil {
		t.Fatal(err)
	}
	d.PushMessage(message.SignalNotification{SampleRate: inRate, CenterFrequency: 517000})
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}
	defer d.Stop()
	if err := d.Start(); err != ErrRunning {
		t.Fatalf("expected ErrRunning, got %v", err)
	}

	block := synth.Generate(nil, n)
	for len(block) > 0 {
		k := min(len(block), 4800)
		d.Feed(block[:k])
		block = block[k:]
	}

	deadline := time.After(10 * time.Second)
	for len(sink.get()) == 0 {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for a message")
		case <-time.After(10 * time.Millisecond):
		}
	}
	m := sink.get()[0]
	if !strings.Contains(m.Text, "TEST MESSAGE 123") {
		t.Fatalf("unexpected text %q", m.Text)
	}
	if m.Frequency != 518000 {
		t.Fatalf("expected channel frequency 518000, got %d", m.Frequency)
	}
	if d.Dropped() != 0 {
		t.Fatalf("expected no drops, got %d", d.Dropped())
	}
}
