package domain

import "math"

// Readings joins depth and velocity maxima on node id, keeping only nodes
// where both are strictly positive. Order follows depth.
func Readings(depth, velocity []NodeMax) []PeakReading {
	vel := make(map[MeshNodeID]float64, len(velocity))
	for _, v := range velocity {
		if v.Value > 0 {
			if _, dup := vel[v.Node]; !dup {
				vel[v.Node] = v.Value
			}
		}
	}

	readings := make([]PeakReading, 0, len(depth))
	for _, d := range depth {
		if d.Value <= 0 {
			continue
		}
		v, ok := vel[d.Node]
		if !ok {
			continue
		}
		readings = append(readings, PeakReading{
			Node:     d.Node,
			Depth:    d.Value,
			Velocity: v,
			DxV:      Round(d.Value*v, 2),
		})
	}
	return readings
}

// ResolvePeak picks the node with the largest DxV among a pier's candidates.
// When the pier has to be skipped it returns false and the reason.
func ResolvePeak(pier PierBoundaryNode, arc ArcID, depth, velocity []NodeMax) (PierResult, SkipReason, bool) {
	if len(depth) == 0 || len(velocity) == 0 {
		return PierResult{}, SkipNoData, false
	}

	readings := Readings(depth, velocity)
	if len(readings) == 0 {
		return PierResult{}, SkipNoPositiveReading, false
	}

	best := 0
	for i := 1; i < len(readings); i++ {
		if readings[i].DxV > readings[best].DxV {
			best = i
		}
	}
	r := readings[best]

	return PierResult{
		PierArcID: arc,
		PierNode:  pier.ID,
		ModelNode: r.Node,
		DxV:       r.DxV,
		Depth:     Round(r.Depth, 4),
		Velocity:  Round(r.Velocity, 4),
	}, "", true
}

// Round rounds x to the given number of decimal places, half to even.
func Round(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.RoundToEven(x*p) / p
}
