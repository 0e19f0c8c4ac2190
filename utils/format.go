package utils

import (
	"fmt"
	"time"
)

// FormatDuration converts a duration to a human-readable string.
// time.Duration.String() already gives compact output such as "2h45m30s",
// "30s", or "500ms"; negative durations keep their sign.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return fmt.Sprintf("-%s", FormatDuration(-d))
	}
	return d.String()
}
