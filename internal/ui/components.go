package ui

import (
	"fmt"
	"strings"
)

// renderBar draws a track of width cells, filled up to ratio.
func renderBar(ratio float64, width int, filled, empty string) string {
	if width < 1 {
		width = 1
	}
	ratio = max(0, min(1, ratio))
	n := int(ratio * float64(width))
	return strings.Repeat(filled, n) + strings.Repeat(empty, width-n)
}

func renderSlider(ratio float64, width int) string {
	if width < 4 {
		width = 4
	}
	pos := int(max(0, min(1, ratio)) * float64(width-1))
	return strings.Repeat("━", pos) + "●" + strings.Repeat("─", width-1-pos)
}

func renderLevel(level float64, width int) string {
	return renderBar(level, width, "▮", "▯")
}

func renderVolumePercent(vol float64) string {
	return fmt.Sprintf("vol %d%%", int(vol*100+0.5))
}
