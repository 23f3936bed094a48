package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// ErrDeviceBusy is returned when the process-wide audio device was already
// opened with a different format.
var ErrDeviceBusy = errors.New("audio device already open with another format")

// Output is one connection to the audio device.
type Output interface {
	Play()
	Pause()
	Volume() float64
	SetVolume(volume float64)
}

// Device is the platform audio output.
type Device interface {
	// NewOutput connects r, interleaved s16le PCM, to the device.
	NewOutput(r io.Reader) Output
	Suspend() error
	Resume() error
}

// Format describes a PCM stream.
type Format struct {
	SampleRate int
	Channels   int
}

type otoDevice struct {
	ctx *oto.Context
}

func (d otoDevice) NewOutput(r io.Reader) Output { return d.ctx.NewPlayer(r) }
func (d otoDevice) Suspend() error               { return d.ctx.Suspend() }
func (d otoDevice) Resume() error                { return d.ctx.Resume() }

var (
	globalOtoCtx *oto.Context
	otoFormat    Format
	otoOnce      sync.Once
	otoInitErr   error
)

// OpenDevice opens the system audio device for format. oto allows a single
// context per process, so later calls return the same device and fail if
// the format differs.
func OpenDevice(format Format) (Device, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
			otoFormat = format
		}
	})
	if otoInitErr != nil {
		return nil, fmt.Errorf("opening audio device: %w", otoInitErr)
	}
	if otoFormat != format {
		return nil, fmt.Errorf("%w: have %d Hz/%d ch, want %d Hz/%d ch", ErrDeviceBusy,
			otoFormat.SampleRate, otoFormat.Channels, format.SampleRate, format.Channels)
	}
	return otoDevice{ctx: globalOtoCtx}, nil
}

// ClockState is the run state of a Clock.
type ClockState int

const (
	ClockSuspended ClockState = iota
	ClockRunning
)

func (s ClockState) String() string {
	if s == ClockRunning {
		return "running"
	}
	return "suspended"
}

// Clock is the audio clock driving the graph. It starts suspended: nothing
// is pulled from the source until Resume.
type Clock struct {
	dev   Device
	mu    sync.Mutex
	state ClockState
}

// NewClock suspends dev and wraps it.
func NewClock(dev Device) (*Clock, error) {
	if err := dev.Suspend(); err != nil {
		return nil, fmt.Errorf("suspending audio device: %w", err)
	}
	return &Clock{dev: dev, state: ClockSuspended}, nil
}

// State returns the current run state.
func (c *Clock) State() ClockState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resume starts the device. Resuming a running clock is a no-op.
func (c *Clock) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == ClockRunning {
		return nil
	}
	if err := c.dev.Resume(); err != nil {
		return fmt.Errorf("resuming audio clock: %w", err)
	}
	c.state = ClockRunning
	return nil
}

// Suspend stops the device until the next Resume.
func (c *Clock) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == ClockSuspended {
		return nil
	}
	if err := c.dev.Suspend(); err != nil {
		return fmt.Errorf("suspending audio clock: %w", err)
	}
	c.state = ClockSuspended
	return nil
}

// connect attaches r to the device.
func (c *Clock) connect(r io.Reader) Output {
	return c.dev.NewOutput(r)
}
