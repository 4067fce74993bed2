// Package channel converts device rate samples into a narrow channel at a
// fixed rate, centered on a frequency offset within the device band.
package channel

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/rxcore/dsp"
	"github.com/jrwynneiii/rxcore/message"
	"github.com/jrwynneiii/rxcore/samples"
)

type Channelizer struct {
	inRate  int
	outRate int
	offset  int64
	cutoff  float64

	nco    *dsp.NCO
	interp *dsp.Interpolator
}

// New returns a channelizer taking inRate samples down to outRate around
// offset Hz, with a pass band edge at cutoff Hz.
func New(inRate, outRate int, offset int64, cutoff float64) (*Channelizer, error) {
	c := &Channelizer{outRate: outRate, cutoff: cutoff, nco: dsp.NewNCO()}
	if err := c.Configure(inRate, offset); err != nil {
		return nil, err
	}
	return c, nil
}

// Configure applies a new input rate or offset. The resampler is rebuilt only
// when the input rate changes.
func (c *Channelizer) Configure(inRate int, offset int64) error {
	if inRate <= 0 {
		return fmt.Errorf("channelizer: invalid input rate %d", inRate)
	}
	if offset*2 >= int64(inRate) || -offset*2 >= int64(inRate) {
		log.Warnf("[channel] offset %d Hz is outside the %d S/s band", offset, inRate)
	}
	if inRate != c.inRate || c.interp == nil {
		interp, err := dsp.NewInterpolator(float64(inRate), float64(c.outRate), c.cutoff)
		if err != nil {
			return err
		}
		c.interp = interp
		c.inRate = inRate
	}
	c.offset = offset
	c.nco.SetFreq(-float64(offset), float64(inRate))
	return nil
}

// Apply handles a ConfigureChannelizer message.
func (c *Channelizer) Apply(m message.ConfigureChannelizer) error {
	rate := m.SampleRate
	if rate == 0 {
		rate = c.inRate
	}
	return c.Configure(rate, m.FrequencyOffset)
}

func (c *Channelizer) InRate() int   { return c.inRate }
func (c *Channelizer) OutRate() int  { return c.outRate }
func (c *Channelizer) Offset() int64 { return c.offset }

// Process mixes and resamples in, appending channel samples to out.
func (c *Channelizer) Process(out []complex64, in []samples.Sample) []complex64 {
	if c.outRate > c.inRate {
		for _, s := range in {
			c.interp.Interpolate(c.nco.Mix(s), func(y complex64) { out = append(out, y) })
		}
		return out
	}
	for _, s := range in {
		if y, ok := c.interp.Decimate(c.nco.Mix(s)); ok {
			out = append(out, y)
		}
	}
	return out
}
