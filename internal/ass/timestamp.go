package ass

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimestamp reads H:MM:SS.CC. Minutes and seconds are not range
// checked, so 0:75:00.00 is 75 minutes.
func ParseTimestamp(ts string) (time.Duration, error) {
	ts = strings.TrimSpace(ts)
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q", ts)
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q", ts)
	}

	// split seconds and centiseconds
	secParts := strings.Split(parts[2], ".")
	if len(secParts) > 2 {
		return 0, fmt.Errorf("invalid seconds in %q", ts)
	}

	seconds, err := strconv.Atoi(secParts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q", ts)
	}

	var centis int
	if len(secParts) == 2 {
		frac := secParts[1]
		centis, err = strconv.Atoi(frac)
		if err != nil {
			return 0, fmt.Errorf("invalid fraction in %q", ts)
		}
		switch len(frac) {
		case 1:
			centis *= 10
		case 3:
			// some tools write milliseconds
			centis /= 10
		}
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(centis)*10*time.Millisecond, nil
}

// FormatTimestamp writes H:MM:SS.CC, truncating to centiseconds. Negative
// values clamp to zero.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	centis := (int(d.Milliseconds()) % 1000) / 10

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, centis)
}

// centiseconds rounds d to the nearest centisecond.
func centiseconds(d time.Duration) int64 {
	return (d.Milliseconds() + 5) / 10
}
