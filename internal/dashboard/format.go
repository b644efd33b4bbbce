package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPrice formats a price with two decimals and comma grouping.
func FormatPrice(p float64) string {
	s := fmt.Sprintf("%.2f", math.Abs(p))
	dot := strings.IndexByte(s, '.')
	n, _ := strconv.Atoi(s[:dot])
	out := FormatInt(n) + s[dot:]
	if p < 0 && out != "0.00" {
		out = "-" + out
	}
	return out
}

// FormatRange renders a window's date span, collapsing a single day.
func FormatRange(first, last string) string {
	if first == last {
		return first
	}
	return first + " to " + last
}
