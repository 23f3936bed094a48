package audio

import (
	"encoding/binary"
	"io"
	"sync"
)

// SourceNode wraps a media PCM stream (interleaved s16le). Whatever reads
// from it, normally the audio device, gets the stream unchanged; every
// block read is also downmixed to mono and fanned out to the taps.
type SourceNode struct {
	r         io.Reader
	channels  int
	frameSize int

	mu   sync.Mutex
	taps []Processor

	// Owned by the reading goroutine.
	pending []byte // partial frame from the previous read
	mono    []float64
}

// NewSourceNode wraps r, which carries channels interleaved 16-bit samples.
func NewSourceNode(r io.Reader, channels int) *SourceNode {
	if channels < 1 {
		channels = 1
	}
	return &SourceNode{
		r:         r,
		channels:  channels,
		frameSize: channels * 2,
	}
}

// Connect adds p as a read-only tap.
func (s *SourceNode) Connect(p Processor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taps = append(s.taps, p)
}

// Taps returns the number of connected taps.
func (s *SourceNode) Taps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.taps)
}

// Read reads from the media stream and feeds the taps.
func (s *SourceNode) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if n > 0 {
		s.fanOut(p[:n])
	}
	return n, err
}

func (s *SourceNode) fanOut(chunk []byte) {
	data := chunk
	if len(s.pending) > 0 {
		data = append(s.pending, chunk...)
	}

	frames := len(data) / s.frameSize
	if cap(s.mono) < frames {
		s.mono = make([]float64, frames)
	}
	mono := s.mono[:frames]

	scale := 1 / (32768 * float64(s.channels))
	for i := range frames {
		var sum int
		off := i * s.frameSize
		for ch := range s.channels {
			sum += int(int16(binary.LittleEndian.Uint16(data[off+ch*2:])))
		}
		mono[i] = float64(sum) * scale
	}

	// Copy the leftover: data may alias the caller's buffer.
	s.pending = append(s.pending[:0], data[frames*s.frameSize:]...)

	if frames == 0 {
		return
	}
	s.mu.Lock()
	taps := s.taps
	s.mu.Unlock()
	for _, t := range taps {
		t.Process(mono)
	}
}
