package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	arcNodePrefix = "ID "
	arcPrefix     = "ArcID "
)

// ArcNodeID identifies a boundary node in the map file, in the synthesized "ID <n>" form.
type ArcNodeID string

// ArcID identifies a pier arc, in the synthesized "ArcID <n>" form.
type ArcID string

// MeshNodeID identifies a node in the geometry file. It is the bare node number.
type MeshNodeID string

// NewArcNodeID synthesizes a map-file node identifier from its raw token.
func NewArcNodeID(token string) ArcNodeID {
	return ArcNodeID(arcNodePrefix + token)
}

// NewArcID synthesizes an arc identifier from its raw token.
func NewArcID(token string) ArcID {
	return ArcID(arcPrefix + token)
}

// MeshNodeID converts a map-file node identifier into the geometry id space.
// It reports false when the identifier is not in the "ID <n>" form.
func (id ArcNodeID) MeshNodeID() (MeshNodeID, bool) {
	raw, ok := strings.CutPrefix(string(id), arcNodePrefix)
	if !ok || raw == "" {
		return "", false
	}
	return MeshNodeID(raw), true
}

// Column returns the 0-based raster column for a 1-based mesh node id.
func (id MeshNodeID) Column() (int, error) {
	n, err := strconv.Atoi(string(id))
	if err != nil {
		return 0, fmt.Errorf("mesh node %q: %w", string(id), err)
	}
	if n < 1 {
		return 0, fmt.Errorf("mesh node %q: ids are 1-based", string(id))
	}
	return n - 1, nil
}
