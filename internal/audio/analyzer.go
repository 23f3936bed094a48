package audio

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// ErrInvalidAnalyzer is returned for an AnalyzerSpec that cannot be built.
var ErrInvalidAnalyzer = errors.New("invalid analyzer spec")

// AnalyzerSpec fixes an analyzer's window size and frequency smoothing.
type AnalyzerSpec struct {
	// Resolution is the number of time-domain samples, a power of two.
	Resolution int
	// Smoothing is the weight of the previous frequency read, in [0, 1].
	Smoothing float64
}

// DefaultAnalyzerSpec is shared by all three bands.
var DefaultAnalyzerSpec = AnalyzerSpec{Resolution: 2048, Smoothing: 0.85}

const (
	minResolution = 32
	maxResolution = 32768

	minDecibels = -100.0
	maxDecibels = -30.0
)

// Validate reports whether s describes a buildable analyzer.
func (s AnalyzerSpec) Validate() error {
	r := s.Resolution
	if r < minResolution || r > maxResolution || r&(r-1) != 0 {
		return fmt.Errorf("%w: resolution %d is not a power of two in [%d, %d]",
			ErrInvalidAnalyzer, r, minResolution, maxResolution)
	}
	if math.IsNaN(s.Smoothing) || s.Smoothing < 0 || s.Smoothing > 1 {
		return fmt.Errorf("%w: smoothing %v outside [0, 1]", ErrInvalidAnalyzer, s.Smoothing)
	}
	return nil
}

// BandAnalyzer is a dead-end tap that keeps the most recent Resolution
// samples it was fed and answers pull-based reads of them.
type BandAnalyzer struct {
	spec AnalyzerSpec

	mu   sync.Mutex
	ring *ringBuffer

	// Read-side scratch, guarded by readMu. Lock order: readMu, then mu.
	readMu   sync.Mutex
	samples  []float64
	fft      *fourier.FFT
	coeffs   []complex128
	smoothed []float64
}

// NewBandAnalyzer creates an analyzer for spec.
func NewBandAnalyzer(spec AnalyzerSpec) (*BandAnalyzer, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &BandAnalyzer{
		spec:     spec,
		ring:     newRingBuffer(spec.Resolution),
		samples:  make([]float64, spec.Resolution),
		smoothed: make([]float64, spec.Resolution/2),
	}, nil
}

// Resolution returns the number of samples in a time-domain read.
func (a *BandAnalyzer) Resolution() int { return a.spec.Resolution }

// Smoothing returns the frequency smoothing constant.
func (a *BandAnalyzer) Smoothing() float64 { return a.spec.Smoothing }

// FrequencyBins returns the number of values in a frequency read.
func (a *BandAnalyzer) FrequencyBins() int { return a.spec.Resolution / 2 }

// Process records block as the newest samples.
func (a *BandAnalyzer) Process(block []float64) {
	a.mu.Lock()
	a.ring.write(block)
	a.mu.Unlock()
}

// Reset discards recorded samples and smoothing history.
func (a *BandAnalyzer) Reset() {
	a.readMu.Lock()
	defer a.readMu.Unlock()
	a.mu.Lock()
	a.ring.reset()
	a.mu.Unlock()
	clear(a.smoothed)
}

// snapshot must be called with readMu held.
func (a *BandAnalyzer) snapshot() []float64 {
	a.mu.Lock()
	a.ring.latest(a.samples)
	a.mu.Unlock()
	return a.samples
}

// ReadFloatTimeDomain copies the current window into dst, oldest sample
// first, and returns the number of samples written.
func (a *BandAnalyzer) ReadFloatTimeDomain(dst []float64) int {
	a.readMu.Lock()
	defer a.readMu.Unlock()
	return copy(dst, a.snapshot())
}

// ReadTimeDomain writes the current window into dst as unsigned bytes,
// 128 being zero, and returns the number of bytes written.
func (a *BandAnalyzer) ReadTimeDomain(dst []byte) int {
	a.readMu.Lock()
	defer a.readMu.Unlock()

	samples := a.snapshot()
	n := min(len(dst), len(samples))
	for i := range n {
		dst[i] = sampleToByte(samples[i])
	}
	return n
}

func sampleToByte(x float64) byte {
	v := 128 * (x + 1)
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return byte(v)
	}
}

// ReadFrequency writes smoothed magnitude bins of the current window into
// dst, scaled from [-100 dB, -30 dB] to [0, 255], and returns the number
// of bins written. Each call folds the new spectrum into the previous one
// with weight Smoothing.
func (a *BandAnalyzer) ReadFrequency(dst []byte) int {
	a.readMu.Lock()
	defer a.readMu.Unlock()

	a.updateSpectrum()

	n := min(len(dst), len(a.smoothed))
	scale := 255 / (maxDecibels - minDecibels)
	for i := range n {
		db := minDecibels
		if m := a.smoothed[i]; m > 0 {
			db = 20 * math.Log10(m)
		}
		v := math.Floor(scale * (db - minDecibels))
		dst[i] = byte(math.Max(0, math.Min(255, v)))
	}
	return n
}

// updateSpectrum must be called with readMu held.
func (a *BandAnalyzer) updateSpectrum() {
	samples := window.Blackman(a.snapshot())

	if a.fft == nil {
		a.fft = fourier.NewFFT(len(samples))
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, samples)

	tau := a.spec.Smoothing
	norm := 1 / float64(len(samples))
	for i := range a.smoothed {
		mag := cmplx.Abs(a.coeffs[i]) * norm
		v := tau*a.smoothed[i] + (1-tau)*mag
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		a.smoothed[i] = v
	}
}
