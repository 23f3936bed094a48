package session

import "github.com/olivier-w/ringscope/internal/audio"

// Event is something a front-end reports to the session.
type Event interface {
	event()
}

// SourceReady announces the media element to visualise.
type SourceReady struct {
	Media audio.Media
}

// ParameterChanged carries a new frequency for one band, in Hz.
type ParameterChanged struct {
	Band  audio.Band
	Value float64
}

// PlaybackStarted is sent whenever playback begins or resumes.
type PlaybackStarted struct{}

func (SourceReady) event()      {}
func (ParameterChanged) event() {}
func (PlaybackStarted) event()  {}
