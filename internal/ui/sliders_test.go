package ui

import (
	"testing"

	"github.com/olivier-w/ringscope/internal/audio"
)

func TestNewSlidersDefaults(t *testing.T) {
	s := NewSliders(audio.Cutoffs{Bass: 150, Mid: 1000, Treble: 5000})
	want := []Slider{
		{Band: audio.Bass, Min: 20, Max: 500, Step: 10, Value: 150},
		{Band: audio.Mid, Min: 200, Max: 5000, Step: 50, Value: 1000},
		{Band: audio.Treble, Min: 2000, Max: 16000, Step: 250, Value: 5000},
	}
	for i := range want {
		if s[i] != want[i] {
			t.Fatalf("slider %d = %+v, want %+v", i, s[i], want[i])
		}
	}
}

func TestSliderSetSnapsAndClamps(t *testing.T) {
	bass := sliderRanges[audio.Bass]
	cases := []struct {
		in, want float64
	}{
		{154, 150},
		{156, 160},
		{5, 20},
		{9000, 500},
	}
	for _, tc := range cases {
		if got := bass.Set(tc.in).Value; got != tc.want {
			t.Fatalf("Set(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSliderNudgeAndRatio(t *testing.T) {
	treble := sliderRanges[audio.Treble].Set(5000)
	if got := treble.Nudge(-2).Value; got != 4500 {
		t.Fatalf("nudge = %v", got)
	}
	if got := treble.Set(16000).Ratio(); got != 1 {
		t.Fatalf("ratio = %v", got)
	}
	if got := treble.Set(2000).Label(); got != "2000 Hz" {
		t.Fatalf("label = %q", got)
	}
}
