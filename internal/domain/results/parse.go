package results

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseIntOrDefault coerces v to an int, returning def when v has no
// integer reading.
//
// Accepted: Go integer and float kinds (floats truncate toward zero),
// json.Number, and strings that start with an optional sign followed by
// decimal digits. Surrounding whitespace and anything after the leading
// digits is ignored, so "12abc" is 12 and "3.7" is 3. Everything else,
// including nil, bools, NaN, infinities and out-of-range values, yields def.
func ParseIntOrDefault(v any, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		if n > math.MaxInt || n < math.MinInt {
			return def
		}
		return int(n)
	case uint:
		if n > math.MaxInt {
			return def
		}
		return int(n)
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return int(n)
	case uint64:
		if n > math.MaxInt {
			return def
		}
		return int(n)
	case float32:
		return floatToInt(float64(n), def)
	case float64:
		return floatToInt(n, def)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return ParseIntOrDefault(i, def)
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt(f, def)
		}
		return parseLeadingInt(n.String(), def)
	case string:
		return parseLeadingInt(n, def)
	default:
		return def
	}
}

func floatToInt(f float64, def int) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	t := math.Trunc(f)
	if t >= float64(math.MaxInt) || t < float64(math.MinInt) {
		return def
	}
	return int(t)
}

func parseLeadingInt(s string, def int) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return def
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return def
	}
	return n
}

// formatTenths renders total/count with one decimal, rounding halves away
// from zero. It works on integers so equal inputs always print the same.
func formatTenths(total, count int) string {
	if count <= 0 {
		return "0"
	}
	num := int64(total) * 10
	den := int64(count)
	sign := ""
	if num < 0 {
		sign = "-"
		num = -num
	}
	q, r := num/den, num%den
	if 2*r >= den {
		q++
	}
	return sign + strconv.FormatInt(q/10, 10) + "." + strconv.FormatInt(q%10, 10)
}
