package util

import (
	"fmt"
	"time"
)

// FormatDuration renders d as m:ss, or h:mm:ss from an hour up. Negative
// durations render as zero and fractions of a second are dropped.
func FormatDuration(d time.Duration) string {
	secs := int64(max(d, 0) / time.Second)
	h, m, s := secs/3600, secs/60%60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
