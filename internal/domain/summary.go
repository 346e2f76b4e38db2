package domain

// PeakPerArc keeps the largest-DxV row for each pier arc. Arcs appear in the
// order they were first seen and the first row wins a tie.
func PeakPerArc(results []PierResult) []PierResult {
	pos := make(map[ArcID]int)
	out := make([]PierResult, 0, len(results))
	for _, r := range results {
		i, seen := pos[r.PierArcID]
		if !seen {
			pos[r.PierArcID] = len(out)
			out = append(out, r)
			continue
		}
		if r.DxV > out[i].DxV {
			out[i] = r
		}
	}
	return out
}
