package session

import "github.com/olivier-w/ringscope/internal/audio"

// Config holds the values a session starts with.
type Config struct {
	Cutoffs  audio.Cutoffs
	Analyzer audio.AnalyzerSpec
	// Trails fades previous frames instead of wiping them.
	Trails bool
}

// DefaultCutoffs are the initial bass, mid and treble frequencies.
var DefaultCutoffs = audio.Cutoffs{Bass: 150, Mid: 1000, Treble: 5000}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Cutoffs:  DefaultCutoffs,
		Analyzer: audio.DefaultAnalyzerSpec,
	}
}
