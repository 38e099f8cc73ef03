package stream

import (
	"strconv"
	"strings"
)

// Range is a requested byte range. End is inclusive; a negative End means
// "to the end of the file".
type Range struct {
	Start int64
	End   int64
}

// Whole is the range selecting an entire file.
var Whole = Range{Start: 0, End: -1}

// IsWhole reports whether r starts at 0 with no explicit end.
func (r Range) IsWhole() bool {
	return r.Start == 0 && r.End < 0
}

// ParseRange parses a "bytes=START-END" header (END optional). Anything it
// does not understand, including suffix and multi-range forms, selects the
// whole file.
func ParseRange(h string) Range {
	h = strings.TrimSpace(h)
	set, ok := strings.CutPrefix(h, "bytes=")
	if !ok || strings.Contains(set, ",") {
		return Whole
	}
	first, last, ok := strings.Cut(strings.TrimSpace(set), "-")
	if !ok || first == "" {
		return Whole
	}
	start, err := strconv.ParseInt(strings.TrimSpace(first), 10, 64)
	if err != nil || start < 0 {
		return Whole
	}
	r := Range{Start: start, End: -1}
	if last = strings.TrimSpace(last); last != "" {
		end, err := strconv.ParseInt(last, 10, 64)
		if err != nil || end < start {
			return Whole
		}
		r.End = end
	}
	return r
}
