package tokenize

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidRegion is returned for a region with a negative start or an
	// end before its start.
	ErrInvalidRegion = errors.New("invalid mention region")
	// ErrOverlappingRegions is returned when two committed regions overlap.
	ErrOverlappingRegions = errors.New("overlapping mention regions")
)

// Region is the half-open range [Start, End) of a committed mention.
type Region struct {
	Start int
	End   int
}

// Len returns the region length in bytes.
func (r Region) Len() int {
	return r.End - r.Start
}

// Contains reports whether offset lies inside the region.
func (r Region) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// SpanIndex is a read-only view over the committed mentions in a text. The
// tokenizer only uses it to fence its search window.
type SpanIndex interface {
	// PrecedingEnd returns the largest region end that is <= offset.
	PrecedingEnd(offset int) (int, bool)
	// FollowingStart returns the smallest region start that is >= offset.
	FollowingStart(offset int) (int, bool)
}

// Spans is a sorted, non-overlapping list of regions.
type Spans []Region

// NewSpans sorts a copy of regions and checks that none overlap.
func NewSpans(regions ...Region) (Spans, error) {
	spans := make(Spans, len(regions))
	copy(spans, regions)
	sort.Slice(spans, func(i, j int) bool {
		return spans[i].Start < spans[j].Start
	})
	for i, r := range spans {
		if r.Start < 0 || r.End < r.Start {
			return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidRegion, r.Start, r.End)
		}
		if i > 0 && spans[i-1].End > r.Start {
			return nil, fmt.Errorf("%w: [%d, %d) and [%d, %d)", ErrOverlappingRegions,
				spans[i-1].Start, spans[i-1].End, r.Start, r.End)
		}
	}
	return spans, nil
}

// PrecedingEnd implements SpanIndex.
func (s Spans) PrecedingEnd(offset int) (int, bool) {
	// first region whose end is past offset; the one before it is the nearest
	i := sort.Search(len(s), func(i int) bool { return s[i].End > offset })
	if i == 0 {
		return 0, false
	}
	return s[i-1].End, true
}

// FollowingStart implements SpanIndex.
func (s Spans) FollowingStart(offset int) (int, bool) {
	i := sort.Search(len(s), func(i int) bool { return s[i].Start >= offset })
	if i == len(s) {
		return 0, false
	}
	return s[i].Start, true
}

// At returns the region containing offset.
func (s Spans) At(offset int) (Region, bool) {
	i := sort.Search(len(s), func(i int) bool { return s[i].End > offset })
	if i < len(s) && s[i].Contains(offset) {
		return s[i], true
	}
	return Region{}, false
}
