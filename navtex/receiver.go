package navtex

import (
	"math/cmplx"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/rxcore/dsp"
	segdsp "github.com/racerxdl/segdsp/dsp"
	"github.com/racerxdl/segdsp/tools"
)

// Preamble is phasing beta followed by phasing alpha, MSB first.
const Preamble = uint16(PhasingBeta)<<codeBits | uint16(PhasingAlpha)

const (
	preambleMask = 1<<(2*codeBits) - 1
	envelopeBits = 8
)

// Receiver turns channel rate samples into decoded messages: mark/space
// correlation, bit timing, frame sync and SITOR-B decoding with an error
// budget. It is not safe for concurrent use.
type Receiver struct {
	settings Settings
	spb      int
	emit     func(DecodedMessage)
	now      func() time.Time

	ref        *dsp.NCO
	sum1, sum2 *dsp.MovingSum[complex64]
	fir1, fir2 *segdsp.FirFilter
	env1, env2 *dsp.MovingMaximum
	m1, m2     []complex64

	bit     bool
	clock   int
	shift   uint16
	synced  bool
	nbits   int
	sitor   *SitorB
	text    []rune
	errRun  int
	power   float64
	nPower  int
	resyncs int

	// Frequency is stamped on every message.
	Frequency int64
}

// NewReceiver returns a receiver calling emit for every complete message.
func NewReceiver(s Settings, emit func(DecodedMessage)) *Receiver {
	r := &Receiver{emit: emit, now: time.Now, sitor: NewSitorB(), ref: dsp.NewNCO()}
	r.Configure(s)
	return r
}

// Configure applies new settings and restarts the search for a preamble.
func (r *Receiver) Configure(s Settings) {
	r.settings = s
	r.spb = s.SamplesPerBit()
	r.ref.SetFreq(s.FrequencyShift/2, ChannelSampleRate)
	r.sum1 = dsp.NewMovingSum[complex64](r.spb)
	r.sum2 = dsp.NewMovingSum[complex64](r.spb)
	taps := segdsp.MakeLowPass(1, ChannelSampleRate, s.Baud*0.75, s.Baud*0.5)
	r.fir1 = segdsp.MakeFirFilter(taps)
	r.fir2 = segdsp.MakeFirFilter(taps)
	r.env1 = dsp.NewMovingMaximum(envelopeBits * r.spb)
	r.env2 = dsp.NewMovingMaximum(envelopeBits * r.spb)
	r.clock = 0
	r.resync()
}

func (r *Receiver) Settings() Settings { return r.settings }

// Synced reports whether the preamble has been found.
func (r *Receiver) Synced() bool { return r.synced }

// Resyncs counts how often the error budget abandoned a reception.
func (r *Receiver) Resyncs() int { return r.resyncs }

// Text returns the characters buffered for the message in progress.
func (r *Receiver) Text() string { return string(r.text) }

func (r *Receiver) resync() {
	r.synced = false
	r.shift = 0
	r.nbits = 0
	r.sitor.Reset()
	r.text = r.text[:0]
	r.errRun = 0
	r.power = 0
	r.nPower = 0
}

// Process consumes a block of channel samples.
func (r *Receiver) Process(in []complex64) {
	r.m1 = r.m1[:0]
	r.m2 = r.m2[:0]
	for _, x := range in {
		e := r.ref.Next()
		r.m1 = append(r.m1, x*complex(real(e), -imag(e)))
		r.m2 = append(r.m2, x*e)
	}
	f1, f2 := r.m1, r.m2
	if r.settings.Filter == FilterLowPass {
		f1 = r.fir1.Work(r.m1)
		f2 = r.fir2.Work(r.m2)
	} else {
		for i := range f1 {
			r.sum1.Push(f1[i])
			r.sum2.Push(f2[i])
			f1[i] = r.sum1.Sum()
			f2[i] = r.sum2.Sum()
		}
	}
	for i, x := range in {
		r.sample(x, f1[i], f2[i])
	}
}

func (r *Receiver) sample(x, c1, c2 complex64) {
	a1 := cmplx.Abs(complex128(c1))
	a2 := cmplx.Abs(complex128(c2))
	r.env1.Push(a1)
	r.env2.Push(a2)
	diff := a1 - a2
	if r.settings.ATC {
		diff = (a1 - r.env1.Max()/2) - (a2 - r.env2.Max()/2)
	}
	bit := diff > 0
	if r.settings.SpaceHigh {
		bit = !bit
	}

	if r.synced {
		r.power += float64(tools.ComplexAbsSquared(x))
		r.nPower++
	}

	// Transitions before the midpoint belong to the bit being received.
	if bit != r.bit && r.clock >= r.spb/2 {
		r.clock = 0
	}
	r.bit = bit
	if r.clock == r.spb/2 {
		r.receiveBit(bit)
	}
	r.clock++
	if r.clock >= r.spb {
		r.clock = 0
	}
}

func (r *Receiver) receiveBit(bit bool) {
	r.shift <<= 1
	if bit {
		r.shift |= 1
	}
	r.shift &= preambleMask
	if !r.synced {
		if r.shift == Preamble {
			log.Debugf("[navtex] Preamble found")
			r.synced = true
			r.nbits = 0
		}
		return
	}
	r.nbits++
	if r.nbits == codeBits {
		r.nbits = 0
		r.receiveCode(byte(r.shift & (1<<codeBits - 1)))
	}
}

func (r *Receiver) receiveCode(code byte) {
	c := r.sitor.Decode(code)
	if c == Invalid {
		return
	}
	if c == ETX {
		log.Debugf("[navtex] End of transmission")
		if len(r.text) > 0 {
			r.publish()
		}
		r.resync()
		return
	}
	if c == '*' {
		r.errRun++
	} else {
		r.errRun = 0
	}
	if c != CR {
		r.text = append(r.text, c)
	}
	if strings.HasSuffix(string(r.text), "NNNN") {
		r.publish()
		r.resync()
		return
	}
	if reason := r.overBudget(); reason != "" {
		log.Debugf("[navtex] Resynchronising: %s", reason)
		r.resyncs++
		r.resync()
	}
}

// overBudget returns why the current reception should be abandoned, or "".
func (r *Receiver) overBudget() string {
	s := r.settings
	if s.MaxConsecutiveErrors > 0 && r.errRun >= s.MaxConsecutiveErrors {
		return "too many consecutive errors"
	}
	if chars := r.sitor.Chars(); s.MinCharsForErrorRate > 0 && chars >= s.MinCharsForErrorRate {
		if float64(r.sitor.Errors())/float64(2*chars) > s.ErrorRateThreshold {
			return "error rate too high"
		}
	}
	if s.JunkLimit > 0 && len(r.text) >= s.JunkLimit && strings.Trim(string(r.text), "*") == "" {
		return "only errors received"
	}
	return ""
}

func (r *Receiver) publish() {
	text := string(r.text)
	msg := ParseMessage(text)
	if r.settings.FilterStation != "" && msg.StationID != r.settings.FilterStation {
		log.Debugf("[navtex] Dropping message from station %q", msg.StationID)
		return
	}
	var rssi float64
	if r.nPower > 0 {
		rssi = r.power / float64(r.nPower)
	}
	d := DecodedMessage{
		Text:      text,
		Message:   msg,
		Errors:    r.sitor.Errors(),
		Chars:     r.sitor.Chars(),
		RSSI:      rssi,
		RSSIdB:    dsp.DBFromPower(rssi),
		Timestamp: r.now(),
		Frequency: r.Frequency,
	}
	if r.emit != nil {
		r.emit(d)
	}
}
