package ui

import (
	"fmt"
	"math"

	"github.com/olivier-w/ringscope/internal/audio"
)

// Slider is a stepped range control for one band frequency.
type Slider struct {
	Band  audio.Band
	Min   float64
	Max   float64
	Step  float64
	Value float64
}

var sliderRanges = [audio.NumBands]Slider{
	{Band: audio.Bass, Min: 20, Max: 500, Step: 10},
	{Band: audio.Mid, Min: 200, Max: 5000, Step: 50},
	{Band: audio.Treble, Min: 2000, Max: 16000, Step: 250},
}

// NewSliders returns the three band sliders set to c.
func NewSliders(c audio.Cutoffs) [audio.NumBands]Slider {
	s := sliderRanges
	for i := range s {
		s[i] = s[i].Set(c.Get(s[i].Band))
	}
	return s
}

// Set returns s moved to the nearest step to v within its range.
func (s Slider) Set(v float64) Slider {
	if math.IsNaN(v) {
		return s
	}
	v = math.Max(s.Min, math.Min(s.Max, v))
	steps := math.Round((v - s.Min) / s.Step)
	s.Value = math.Min(s.Max, s.Min+steps*s.Step)
	return s
}

// Nudge moves s by n steps.
func (s Slider) Nudge(n int) Slider {
	return s.Set(s.Value + float64(n)*s.Step)
}

// Ratio returns the slider position in [0, 1].
func (s Slider) Ratio() float64 {
	if s.Max <= s.Min {
		return 0
	}
	return (s.Value - s.Min) / (s.Max - s.Min)
}

// Label is the value readout shown next to the slider.
func (s Slider) Label() string {
	return fmt.Sprintf("%d Hz", int(math.Round(s.Value)))
}
