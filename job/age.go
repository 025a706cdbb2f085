package job

import (
	"fmt"
	"time"
)

// FormatAge renders a duration the way the control API reports job age:
// "H days HH:MM:SS" once at least a day has elapsed, else "HH:MM:SS". It
// depends only on d.
func FormatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalSeconds := int64(d.Seconds())
	days := totalSeconds / 86400
	rem := totalSeconds % 86400
	hours := rem / 3600
	minutes := (rem % 3600) / 60
	seconds := rem % 60

	if days > 0 {
		return fmt.Sprintf("%d days %02d:%02d:%02d", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
