package player

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ErrAlreadyClaimed is returned when a player's stream is claimed twice.
// A media element can back exactly one source node.
var ErrAlreadyClaimed = errors.New("player stream already claimed")

const bytesPerSample = 2 // 16-bit output

// countingReader wraps an io.Reader and tracks bytes read.
type countingReader struct {
	reader io.Reader
	pos    int64
	mu     sync.Mutex
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.mu.Lock()
	cr.pos += int64(n)
	cr.mu.Unlock()
	return n, err
}

func (cr *countingReader) Pos() int64 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.pos
}

func (cr *countingReader) SetPos(pos int64) {
	cr.mu.Lock()
	cr.pos = pos
	cr.mu.Unlock()
}

// Player is a file-backed media element. It decodes PCM on demand for
// whoever claims its stream and tracks transport state (pause, seek, end).
// It does not own an audio device.
type Player struct {
	file        *os.File
	decoder     audioDecoder
	counter     *countingReader
	bytesPerSec int64
	frameSize   int64
	duration    time.Duration

	paused  bool
	ended   bool
	claimed bool
	closed  bool
	err     error
	done    chan struct{}
	mu      sync.Mutex

	// decMu serialises decoder and file access. Lock order: decMu, then mu.
	// Transport state under mu stays available while a read decodes.
	decMu sync.Mutex
}

// Open creates a Player for the audio file at path.
func Open(path string) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	p, err := newPlayer(dec)
	if err != nil {
		f.Close()
		return nil, err
	}
	p.file = f
	return p, nil
}

func newPlayer(dec audioDecoder) (*Player, error) {
	channels := dec.ChannelCount()
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, channels)
	}
	rate := dec.SampleRate()
	if rate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, rate)
	}

	frameSize := int64(channels * bytesPerSample)
	bytesPerSec := int64(rate) * frameSize
	return &Player{
		decoder:     dec,
		counter:     &countingReader{reader: dec},
		bytesPerSec: bytesPerSec,
		frameSize:   frameSize,
		duration:    time.Duration(float64(dec.Length()) / float64(bytesPerSec) * float64(time.Second)),
		done:        make(chan struct{}),
	}, nil
}

// SampleRate returns the native sample rate of the decoded stream.
func (p *Player) SampleRate() int { return p.decoder.SampleRate() }

// ChannelCount returns 1 or 2.
func (p *Player) ChannelCount() int { return p.decoder.ChannelCount() }

// Claim hands out the PCM stream: interleaved s16le at SampleRate and
// ChannelCount. Only the first call succeeds.
//
// The stream never returns an error or EOF. While paused, after the end of
// the track or after Close it yields silence.
func (p *Player) Claim() (io.Reader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.claimed {
		return nil, ErrAlreadyClaimed
	}
	p.claimed = true
	return stream{p: p}, nil
}

type stream struct {
	p *Player
}

func (s stream) Read(b []byte) (int, error) {
	s.p.fill(b)
	return len(b), nil
}

func (p *Player) fill(b []byte) {
	p.decMu.Lock()
	defer p.decMu.Unlock()

	p.mu.Lock()
	silent := p.paused || p.ended || p.closed
	p.mu.Unlock()
	if silent {
		clear(b)
		return
	}

	n, err := io.ReadFull(p.counter, b)
	if err != nil {
		p.mu.Lock()
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			p.err = err
		}
		p.markEnded()
		p.mu.Unlock()
	}
	clear(b[n:])
}

// markEnded must be called with p.mu held.
func (p *Player) markEnded() {
	if p.ended {
		return
	}
	p.ended = true
	close(p.done)
}

// Done returns a channel that closes when playback reaches the end.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Err returns the decode error that ended playback early, if any.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Restart seeks to the beginning and resumes playback.
// This resets the done channel so Done() can be used again.
func (p *Player) Restart() error {
	p.decMu.Lock()
	defer p.decMu.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.decoder.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("restarting: %w", err)
	}
	p.counter.SetPos(0)
	if p.ended {
		p.done = make(chan struct{})
	}
	p.ended = false
	p.paused = false
	p.err = nil
	return nil
}

// TogglePause toggles between play and pause.
func (p *Player) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = !p.paused
}

// Pause pauses playback without toggling.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

// Play resumes playback.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
}

// Paused returns whether playback is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	if p.bytesPerSec == 0 {
		return 0
	}
	secs := float64(p.counter.Pos()) / float64(p.bytesPerSec)
	return time.Duration(secs * float64(time.Second))
}

// Duration returns the total duration of the track.
func (p *Player) Duration() time.Duration {
	return p.duration
}

// Seek moves playback by delta from the current position.
func (p *Player) Seek(delta time.Duration) error {
	return p.SeekTo(p.Position() + delta)
}

// SeekTo moves playback to pos, clamped to the track and aligned to a
// sample frame. Seeking an ended track is a no-op; use Restart.
func (p *Player) SeekTo(pos time.Duration) error {
	p.decMu.Lock()
	defer p.decMu.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ended || p.closed {
		return nil
	}
	target := clampSeekByteOffset(pos, p.bytesPerSec, p.decoder.Length(), p.frameSize)
	got, err := p.decoder.Seek(target, io.SeekStart)
	if err != nil {
		return fmt.Errorf("seeking: %w", err)
	}
	p.counter.SetPos(got)
	return nil
}

func clampSeekByteOffset(pos time.Duration, bytesPerSec, length, frameSize int64) int64 {
	target := int64(pos.Seconds() * float64(bytesPerSec))
	if target < 0 {
		target = 0
	}
	if target > length {
		target = length
	}
	if frameSize > 0 {
		target -= target % frameSize
	}
	return target
}

// Close releases the file. The claimed stream keeps yielding silence.
func (p *Player) Close() {
	p.decMu.Lock()
	defer p.decMu.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	if p.file != nil {
		p.file.Close()
	}
}
