package wg

import (
	"strconv"
	"strings"
	"time"
)

// FormatHandshake renders a last-handshake timestamp the way wg(8) does:
// "never" for a zero time, "now" for under a second, otherwise
// "N days, N hours, N minutes, N seconds ago" with zero parts omitted.
func FormatHandshake(handshake time.Time) string {
	if handshake.IsZero() {
		return "never"
	}

	diff := time.Since(handshake)
	if diff < time.Second {
		return "now"
	}

	days := int(diff.Hours() / 24)
	hours := int(diff.Hours()) % 24
	minutes := int(diff.Minutes()) % 60
	seconds := int(diff.Seconds()) % 60

	var buf strings.Builder
	first := true

	addPart := func(value int, unit string) bool {
		if value == 0 {
			return false
		}
		if !first {
			buf.WriteString(", ")
		}
		buf.WriteString(strconv.Itoa(value))
		buf.WriteString(" ")
		buf.WriteString(unit)
		if value != 1 {
			buf.WriteString("s")
		}
		first = false
		return true
	}

	hasParts := false
	hasParts = addPart(days, "day") || hasParts
	hasParts = addPart(hours, "hour") || hasParts
	hasParts = addPart(minutes, "minute") || hasParts
	hasParts = addPart(seconds, "second") || hasParts

	if !hasParts {
		return "now"
	}

	buf.WriteString(" ago")
	return buf.String()
}

// FormatTransfer renders receive/transmit byte counters as
// "X.XX <unit> received, Y.YY <unit> sent".
func FormatTransfer(receive, transmit int64) string {
	buf := make([]byte, 0, 64)

	buf = appendSize(buf, float64(receive))
	buf = append(buf, " received, "...)

	buf = appendSize(buf, float64(transmit))
	buf = append(buf, " sent"...)

	return string(buf)
}

func appendSize(buf []byte, value float64) []byte {
	units := []string{"B", "KB", "MB", "GB", "TB"}

	for _, unit := range units {
		if value < 1024.0 || unit == "TB" {
			buf = strconv.AppendFloat(buf, value, 'f', 2, 64)
			buf = append(buf, ' ')
			buf = append(buf, unit...)
			return buf
		}
		value /= 1024.0
	}

	return buf
}
