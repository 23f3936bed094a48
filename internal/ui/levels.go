package ui

import (
	"github.com/charmbracelet/harmonica"
	"github.com/olivier-w/ringscope/internal/audio"
)

// levelMeters smooths per-band levels with a critically damped spring so
// the meters ease instead of jumping every frame.
type levelMeters struct {
	spring harmonica.Spring
	pos    [audio.NumBands]float64
	vel    [audio.NumBands]float64
}

func newLevelMeters(fps int) levelMeters {
	return levelMeters{spring: harmonica.NewSpring(harmonica.FPS(fps), 8.0, 1.0)}
}

func (l *levelMeters) step(b audio.Band, target float64) float64 {
	p, v := l.spring.Update(l.pos[b], l.vel[b], target)
	l.pos[b] = max(0, min(1, p))
	l.vel[b] = v
	return l.pos[b]
}

func (l *levelMeters) value(b audio.Band) float64 {
	return l.pos[b]
}
