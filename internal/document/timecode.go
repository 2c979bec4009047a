package document

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// SRT style time code: 00:01:02,345
type TimeCode string

var timeCodeRegex = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2}),(\d{3})$`)

// Duration converts the time code to a comparable duration.
func (t TimeCode) Duration() (time.Duration, error) {
	matches := timeCodeRegex.FindStringSubmatch(string(t))
	if len(matches) != 5 {
		return 0, fmt.Errorf("malformed time code %q", string(t))
	}

	h, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(matches[2])
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(matches[3])
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(matches[4])
	if err != nil {
		return 0, err
	}

	if m > 59 || s > 59 {
		return 0, fmt.Errorf("time code %q has out of range minutes or seconds", string(t))
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// FormatTimeCode renders a duration as an SRT style time code.
func FormatTimeCode(d time.Duration) TimeCode {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return TimeCode(fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis))
}
