package audio

import (
	"math"
	"math/cmplx"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	dspdesign "github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// Processor consumes blocks of mono samples. Blocks are only valid for the
// duration of the call.
type Processor interface {
	Process(block []float64)
}

// FilterKind selects a filter response.
type FilterKind int

const (
	Lowpass FilterKind = iota
	Bandpass
	Highpass
)

func (k FilterKind) String() string {
	switch k {
	case Lowpass:
		return "lowpass"
	case Bandpass:
		return "bandpass"
	case Highpass:
		return "highpass"
	default:
		return "unknown"
	}
}

const (
	// BandpassQ is the fixed quality factor of the mid band.
	BandpassQ = 1.1
	// PassQ is the resonance of the lowpass and highpass bands, in dB.
	PassQ = 1.0

	// MinFrequency and MaxFrequency bound the design frequency. Values
	// outside are clamped, never rejected.
	MinFrequency = 20.0
	MaxFrequency = 20000.0
)

// FilterSpec describes one band filter.
type FilterSpec struct {
	Kind      FilterKind
	Frequency float64
	// Q is linear for Bandpass and in dB for Lowpass/Highpass.
	Q float64
}

// FilterSpecFor returns the filter used for band b at hz.
func FilterSpecFor(b Band, hz float64) FilterSpec {
	switch b {
	case Mid:
		return FilterSpec{Kind: Bandpass, Frequency: hz, Q: BandpassQ}
	case Treble:
		return FilterSpec{Kind: Highpass, Frequency: hz, Q: PassQ}
	default:
		return FilterSpec{Kind: Lowpass, Frequency: hz, Q: PassQ}
	}
}

// EffectiveFrequency clamps hz to the range a filter at sampleRate can be
// designed for.
func EffectiveFrequency(hz, sampleRate float64) float64 {
	hi := math.Min(MaxFrequency, 0.95*sampleRate/2)
	if hi < MinFrequency {
		hi = MinFrequency
	}
	return math.Max(MinFrequency, math.Min(hz, hi))
}

// design returns cookbook biquad coefficients. Lowpass and highpass
// resonance is given in dB; the bandpass is rescaled to 0 dB peak gain.
func design(kind FilterKind, hz, q, sampleRate float64) biquad.Coefficients {
	hz = EffectiveFrequency(hz, sampleRate)
	switch kind {
	case Bandpass:
		if q <= 0 {
			q = BandpassQ
		}
		// design.Bandpass has constant skirt gain, peaking at q.
		c := dspdesign.Bandpass(hz, q, sampleRate)
		c.B0 /= q
		c.B1 /= q
		c.B2 /= q
		return c
	case Highpass:
		return dspdesign.Highpass(hz, resonanceQ(q), sampleRate)
	default:
		return dspdesign.Lowpass(hz, resonanceQ(q), sampleRate)
	}
}

// resonanceQ converts a resonance in dB to a linear quality factor.
func resonanceQ(db float64) float64 {
	return math.Pow(10, db/20)
}

// BandFilter is a second-order IIR filter that forwards its output to the
// processors connected downstream.
//
// SetFrequency may be called from any goroutine; Process runs on the audio
// goroutine and picks up the new frequency at the next block.
type BandFilter struct {
	kind       FilterKind
	q          float64
	sampleRate float64
	freq       atomic.Uint64 // float64 bits

	// Owned by the goroutine calling Process.
	designed uint64
	section  *biquad.Section
	buf      []float64

	mu      sync.Mutex
	outputs []Processor
}

// NewBandFilter creates a filter from spec running at sampleRate.
func NewBandFilter(spec FilterSpec, sampleRate int) *BandFilter {
	f := &BandFilter{
		kind:       spec.Kind,
		q:          spec.Q,
		sampleRate: float64(sampleRate),
	}
	if spec.Kind == Bandpass && f.q <= 0 {
		f.q = BandpassQ
	}
	f.freq.Store(math.Float64bits(spec.Frequency))
	f.designed = f.freq.Load()
	f.section = biquad.NewSection(design(f.kind, spec.Frequency, f.q, f.sampleRate))
	return f
}

// Kind returns the filter response type.
func (f *BandFilter) Kind() FilterKind { return f.kind }

// Q returns the filter's quality factor.
func (f *BandFilter) Q() float64 { return f.q }

// Frequency returns the most recently accepted frequency in Hz.
func (f *BandFilter) Frequency() float64 {
	return math.Float64frombits(f.freq.Load())
}

// SetFrequency updates the cutoff (or centre) frequency. NaN and infinite
// values are ignored; out-of-range values are stored as given and clamped
// when the coefficients are designed.
func (f *BandFilter) SetFrequency(hz float64) {
	if math.IsNaN(hz) || math.IsInf(hz, 0) {
		return
	}
	f.freq.Store(math.Float64bits(hz))
}

// Magnitude returns the linear gain of the filter at hz for its current
// frequency setting.
func (f *BandFilter) Magnitude(hz float64) float64 {
	c := design(f.kind, f.Frequency(), f.q, f.sampleRate)
	return cmplx.Abs(c.Response(hz, f.sampleRate))
}

// Connect routes the filter output into p.
func (f *BandFilter) Connect(p Processor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs = append(f.outputs, p)
}

// Outputs returns the number of connected downstream processors.
func (f *BandFilter) Outputs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.outputs)
}

// Process filters block and passes the result downstream. block itself is
// left untouched. The filter state carries over a frequency change.
func (f *BandFilter) Process(block []float64) {
	if len(block) == 0 {
		return
	}
	if bits := f.freq.Load(); bits != f.designed {
		f.designed = bits
		f.section.Coefficients = design(f.kind, math.Float64frombits(bits), f.q, f.sampleRate)
	}

	if cap(f.buf) < len(block) {
		f.buf = make([]float64, len(block))
	}
	out := f.buf[:len(block)]

	f.section.ProcessBlockTo(out, block)

	f.mu.Lock()
	outputs := f.outputs
	f.mu.Unlock()
	for _, p := range outputs {
		p.Process(out)
	}
}
