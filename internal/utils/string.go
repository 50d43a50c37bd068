package utils

import (
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/mattn/go-runewidth"
)

// FormatWithCommas formats an integer with comma separators
func FormatWithCommas(n int) string {
	if n < 0 {
		return "-" + FormatWithCommas(-n)
	}
	str := strconv.Itoa(n)
	if len(str) <= 3 {
		return str
	}
	var b strings.Builder
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// PadRight pads s with spaces up to width terminal cells, truncating with an
// ellipsis when it is wider.
func PadRight(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// CreateRankList creates 1-based ranks for an already sorted list.
// Ranks past the uint16 range saturate.
func CreateRankList(count int) []uint16 {
	if count <= 0 {
		return []uint16{}
	}
	ranks := make([]uint16, count)
	for i := range ranks {
		r, err := safecast.Conv[uint16](i + 1)
		if err != nil {
			r = ^uint16(0)
		}
		ranks[i] = r
	}
	return ranks
}
