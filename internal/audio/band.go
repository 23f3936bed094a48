// Package audio implements the band-splitting signal graph: one media
// source fanned out to three filter/analyzer taps plus an unfiltered
// connection to the audio device.
package audio

// Band identifies one of the three visualised frequency bands.
type Band int

const (
	Bass Band = iota
	Mid
	Treble
)

// NumBands is the number of bands in every graph.
const NumBands = 3

// Bands lists every band in draw order. Later bands overdraw earlier ones.
var Bands = [NumBands]Band{Bass, Mid, Treble}

func (b Band) String() string {
	switch b {
	case Bass:
		return "bass"
	case Mid:
		return "mid"
	case Treble:
		return "treble"
	default:
		return "unknown"
	}
}

// Valid reports whether b is one of Bands.
func (b Band) Valid() bool {
	return b >= Bass && b <= Treble
}

// Cutoffs holds one frequency per band: the bass lowpass cutoff, the mid
// bandpass centre and the treble highpass cutoff, all in Hz.
type Cutoffs struct {
	Bass   float64
	Mid    float64
	Treble float64
}

// Get returns the frequency for b.
func (c Cutoffs) Get(b Band) float64 {
	switch b {
	case Bass:
		return c.Bass
	case Mid:
		return c.Mid
	case Treble:
		return c.Treble
	default:
		return 0
	}
}

// With returns a copy of c with b set to hz.
func (c Cutoffs) With(b Band, hz float64) Cutoffs {
	switch b {
	case Bass:
		c.Bass = hz
	case Mid:
		c.Mid = hz
	case Treble:
		c.Treble = hz
	}
	return c
}
