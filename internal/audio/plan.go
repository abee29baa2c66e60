package audio

import "time"

// planResolution matches the precision of the offsets handed to ffmpeg, so
// every planned span encodes to a non-empty segment.
const planResolution = time.Millisecond

// Span is one planned segment, positioned in source time.
type Span struct {
	Index    int
	Start    time.Duration
	Duration time.Duration
}

// End returns the source offset where the span stops.
func (s Span) End() time.Duration {
	return s.Start + s.Duration
}

// Plan cuts the part of a recording of length total that follows skip into
// consecutive spans of length. The last span holds the remainder and is never
// empty. Nothing is planned when skip reaches or passes total. All offsets are
// whole milliseconds: total is truncated, skip and length are rounded.
func Plan(total, skip, length time.Duration) []Span {
	if length <= 0 {
		return nil
	}
	length = max(length.Round(planResolution), planResolution)
	skip = max(skip.Round(planResolution), 0)
	total = total.Truncate(planResolution)
	if total <= skip {
		return nil
	}

	remaining := total - skip
	count := int((remaining + length - 1) / length)
	spans := make([]Span, 0, count)
	for i := 0; i < count; i++ {
		start := skip + time.Duration(i)*length
		spans = append(spans, Span{
			Index:    i,
			Start:    start,
			Duration: min(length, total-start),
		})
	}
	return spans
}
