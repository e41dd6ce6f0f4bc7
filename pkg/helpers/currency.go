package helpers

import "strconv"

// FormatINR formats a rupee amount using Indian digit grouping, e.g.
// 150000 -> "₹1,50,000". Amounts are whole rupees.
func FormatINR(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	s := strconv.FormatInt(amount, 10)

	// Indian grouping: last three digits, then groups of two.
	if len(s) > 3 {
		head := s[:len(s)-3]
		tail := s[len(s)-3:]
		grouped := ""
		for len(head) > 2 {
			grouped = "," + head[len(head)-2:] + grouped
			head = head[:len(head)-2]
		}
		s = head + grouped + "," + tail
	}

	if negative {
		return "-₹" + s
	}
	return "₹" + s
}
