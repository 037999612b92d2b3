package progress

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTimestamp converts an ffmpeg style timestamp of the form
// [[H:]MM:]SS[.frac] into milliseconds. Hours carry no digit limit.
func ParseTimestamp(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("parse timestamp: empty value")
	}

	whole := value
	var millis int64
	if dot := strings.IndexByte(value, '.'); dot >= 0 {
		whole = value[:dot]
		frac, err := strconv.ParseFloat("0"+value[dot:], 64)
		if err != nil {
			return 0, fmt.Errorf("parse timestamp %q: %w", value, err)
		}
		millis = int64(frac * 1000)
	}

	parts := strings.Split(whole, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("parse timestamp %q: too many components", value)
	}
	multipliers := []int64{1000, 60_000, 3_600_000}
	for i := 0; i < len(parts); i++ {
		part := parts[len(parts)-1-i]
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse timestamp %q: %w", value, err)
		}
		millis += n * multipliers[i]
	}
	return millis, nil
}
