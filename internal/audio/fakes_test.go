package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

type fakeOutput struct {
	r       io.Reader
	playing bool
	volume  float64
}

func (o *fakeOutput) Play()               { o.playing = true }
func (o *fakeOutput) Pause()              { o.playing = false }
func (o *fakeOutput) Volume() float64     { return o.volume }
func (o *fakeOutput) SetVolume(v float64) { o.volume = v }

type fakeDevice struct {
	outputs    []*fakeOutput
	suspends   int
	resumes    int
	resumeErr  error
	suspendErr error
}

func (d *fakeDevice) NewOutput(r io.Reader) Output {
	out := &fakeOutput{r: r, volume: 1}
	d.outputs = append(d.outputs, out)
	return out
}

func (d *fakeDevice) Suspend() error {
	d.suspends++
	return d.suspendErr
}

func (d *fakeDevice) Resume() error {
	d.resumes++
	return d.resumeErr
}

var errClaimed = errors.New("claimed")

type fakeMedia struct {
	pcm      []byte
	rate     int
	channels int
	claims   int
}

func (m *fakeMedia) SampleRate() int   { return m.rate }
func (m *fakeMedia) ChannelCount() int { return m.channels }
func (m *fakeMedia) Claim() (io.Reader, error) {
	m.claims++
	if m.claims > 1 {
		return nil, errClaimed
	}
	return bytes.NewReader(m.pcm), nil
}

// sinePCM renders a mono s16le sine.
func sinePCM(hz float64, rate, frames int, amp float64) []byte {
	b := make([]byte, frames*2)
	for i := range frames {
		v := amp * math.Sin(2*math.Pi*hz*float64(i)/float64(rate))
		binary.LittleEndian.PutUint16(b[i*2:], uint16(int16(v*32767)))
	}
	return b
}

func sine(hz float64, rate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * hz * float64(i) / float64(rate))
	}
	return out
}

func rms(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// collector records every block it is fed.
type collector struct {
	samples []float64
	blocks  int
}

func (c *collector) Process(block []float64) {
	c.samples = append(c.samples, block...)
	c.blocks++
}
