package cutlist

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTime renders seconds as a playback position. With full=true the
// output is always hh:mm:ss.mmm; otherwise leading zero fields and a zero
// fractional part are omitted (90.5 -> "01:30.500", 7 -> "7").
func FormatTime(seconds float64, full bool) string {
	if seconds < 0 {
		seconds = 0
	}

	h := int(seconds) / 3600
	m := (int(seconds) % 3600) / 60
	s := int(seconds) % 60
	frac := seconds - math.Floor(seconds)
	ms := int(math.Round(frac * 1000))
	if ms == 1000 {
		ms = 0
		s++
		if s == 60 {
			s = 0
			m++
			if m == 60 {
				m = 0
				h++
			}
		}
	}

	var b strings.Builder
	switch {
	case full || h > 0:
		fmt.Fprintf(&b, "%02d:%02d:%02d", h, m, s)
	case m > 0:
		fmt.Fprintf(&b, "%02d:%02d", m, s)
	default:
		fmt.Fprintf(&b, "%d", s)
	}

	if full || ms > 0 {
		fmt.Fprintf(&b, ".%03d", ms)
	}
	return b.String()
}

// ParseTime parses "ss", "mm:ss" or "hh:mm:ss" (fractional seconds allowed)
// into seconds.
func ParseTime(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")

	switch len(parts) {
	case 1:
		return parseSeconds(parts[0])
	case 2:
		m, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("invalid minutes %q", parts[0])
		}
		sec, err := parseSeconds(parts[1])
		if err != nil {
			return 0, err
		}
		return float64(m)*60 + sec, nil
	case 3:
		h, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("invalid hours %q", parts[0])
		}
		m, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, fmt.Errorf("invalid minutes %q", parts[1])
		}
		sec, err := parseSeconds(parts[2])
		if err != nil {
			return 0, err
		}
		return float64(h)*3600 + float64(m)*60 + sec, nil
	default:
		return 0, fmt.Errorf("invalid time %q", s)
	}
}

func parseSeconds(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid seconds %q", s)
	}
	return v, nil
}

// FormatSeconds renders a timestamp the way it is passed to ffmpeg -ss/-to:
// plain seconds with up to millisecond precision and no trailing zeros.
func FormatSeconds(t float64) string {
	return strconv.FormatFloat(Round(t), 'f', -1, 64)
}
