package diarization

import "github.com/kbukum/samuelizer/transcription"

// Attribute labels each transcript segment with the speaker whose turn
// overlaps it the most. Segments with no overlapping turn keep their
// existing label. The input slice is not modified.
func Attribute(segments []transcription.Segment, turns []Turn) []transcription.Segment {
	out := make([]transcription.Segment, len(segments))
	copy(out, segments)
	for i, seg := range out {
		best, bestOverlap := "", 0.0
		for _, turn := range turns {
			if ov := overlap(seg.Start, seg.End, turn.Start, turn.End); ov > bestOverlap {
				best, bestOverlap = turn.Speaker, ov
			}
		}
		if best != "" {
			out[i].Speaker = best
		}
	}
	return out
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	start := max(aStart, bStart)
	end := min(aEnd, bEnd)
	if end <= start {
		return 0
	}
	return end - start
}
