package results

import (
	"regexp"
	"strconv"
	"strings"
)

var clockPattern = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)

// ClockSeconds parses H:MM, HH:MM, H:MM:SS or HH:MM:SS into seconds since
// midnight. Values are not range checked, so "99:99" is accepted.
func ClockSeconds(s string) (int, bool) {
	if !clockPattern.MatchString(s) {
		return 0, false
	}
	parts := strings.Split(s, ":")
	total := 0
	for i, mul := range []int{3600, 60, 1} {
		if i >= len(parts) {
			break
		}
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return 0, false
		}
		total += n * mul
	}
	return total, true
}
