package domain

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

const (
	nodeBlockLabel = "NODE"
	idToken        = "ID"
)

// MapData is what a map file contributes to a run.
type MapData struct {
	Piers    []PierBoundaryNode
	Mappings []ArcNodeMapping
	// Skipped counts marker lines whose neighbours did not have the expected shape.
	Skipped int
}

// ArcFor returns the arc owning node. A node listed under several arcs
// belongs to the first one in file order.
func (m MapData) ArcFor(node ArcNodeID) (ArcID, bool) {
	for _, mp := range m.Mappings {
		if mp.Node == node {
			return mp.Arc, true
		}
	}
	return "", false
}

// ParseMapFile extracts pier arcs and the boundary nodes lying on them that
// follow the first line mentioning scourRun.
//
// Lines that do not have the expected shape are skipped. Coordinates that do
// not parse are a *MalformedInputError.
func ParseMapFile(r io.Reader, scourRun string) (MapData, error) {
	if scourRun == "" {
		return MapData{}, errors.New("parse map file: scour run label is empty")
	}
	lines, err := scanLines(r)
	if err != nil {
		return MapData{}, err
	}

	firstRun := -1
	var arcMarkers, idLines []int
	for i, l := range lines {
		if firstRun < 0 && strings.Contains(l.text, scourRun) {
			firstRun = i
		}
		if isPierArcMarker(l.tokens) {
			arcMarkers = append(arcMarkers, i)
		}
		if firstRun >= 0 && i > firstRun && hasToken(l.tokens, idToken) {
			idLines = append(idLines, i)
		}
	}

	var data MapData
	owned := make(map[ArcNodeID]struct{})
	for _, i := range arcMarkers {
		header, okHeader := arcHeader(lines, i)
		ends, okEnds := arcEnds(lines, i)
		if !okHeader || !okEnds {
			data.Skipped++
			continue
		}
		arc := NewArcID(header.tokens[1])
		for _, tok := range ends.tokens[1:3] {
			node := NewArcNodeID(tok)
			data.Mappings = append(data.Mappings, ArcNodeMapping{Node: node, Arc: arc})
			owned[node] = struct{}{}
		}
	}

	for _, j := range idLines {
		if !isNodeBlock(lines, j) {
			continue
		}
		idLine, ok := lineAt(lines, j, 2)
		if !ok || len(idLine.tokens) != 2 || idLine.tokens[0] != idToken {
			data.Skipped++
			continue
		}
		id := NewArcNodeID(idLine.tokens[1])
		if _, ok := owned[id]; !ok {
			continue
		}
		coord, ok := nodeCoordinate(lines, j)
		if !ok {
			data.Skipped++
			continue
		}
		pt, err := parsePoint("map", j-1, coord.tokens[1], coord.tokens[2])
		if err != nil {
			return MapData{}, err
		}
		data.Piers = append(data.Piers, PierBoundaryNode{ID: id, Point: pt})
	}

	return data, nil
}

// isPierArcMarker matches "arcType 5". Arc type 5 is the SRH-2D pier arc.
func isPierArcMarker(tokens []string) bool {
	for k := 0; k+1 < len(tokens); k++ {
		if tokens[k] == "arcType" && tokens[k+1] == "5" {
			return true
		}
	}
	return false
}

// arcHeader is the "ID <arc>" line three above the arcType marker.
func arcHeader(lines []textLine, marker int) (textLine, bool) {
	return lineAt(lines, marker-3, 2)
}

// arcEnds is the "NODES <a> <b>" line directly above the arcType marker.
func arcEnds(lines []textLine, marker int) (textLine, bool) {
	return lineAt(lines, marker-1, 3)
}

// isNodeBlock reports whether the ID line at j closes a NODE block.
func isNodeBlock(lines []textLine, j int) bool {
	label, ok := lineAt(lines, j-2, 1)
	return ok && label.text == nodeBlockLabel
}

// nodeCoordinate is the "XY <x> <y> <z>" line directly above the node ID line.
func nodeCoordinate(lines []textLine, j int) (textLine, bool) {
	return lineAt(lines, j-1, 3)
}

// parsePoint parses an easting/northing pair found on the 0-based line index.
func parsePoint(file string, line int, xs, ys string) (orb.Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return orb.Point{}, &MalformedInputError{File: file, Line: line + 1, Field: "easting", Value: xs, Err: err}
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return orb.Point{}, &MalformedInputError{File: file, Line: line + 1, Field: "northing", Value: ys, Err: err}
	}
	return orb.Point{x, y}, nil
}
