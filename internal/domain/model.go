package domain

import "github.com/paulmach/orb"

// PierBoundaryNode is a map-file boundary node lying on a pier arc, found
// after the scour-run marker.
type PierBoundaryNode struct {
	ID    ArcNodeID
	Point orb.Point // [easting, northing]
}

// ArcNodeMapping links a boundary node to the pier arc that owns it.
type ArcNodeMapping struct {
	Node ArcNodeID
	Arc  ArcID
}

// ModelNode is a mesh node from the geometry file. Seq is its position in the
// file and orders candidates deterministically.
type ModelNode struct {
	ID    MeshNodeID
	Point orb.Point
	Seq   int
}

// NodeMax is the maximum of one raster dataset over all time steps at a node.
type NodeMax struct {
	Node  MeshNodeID
	Value float64
}

// PeakReading pairs the independent time maxima of depth and velocity at a node.
type PeakReading struct {
	Node     MeshNodeID
	Depth    float64
	Velocity float64
	DxV      float64
}

// Geo is a WGS-84 latitude/longitude pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PierResult is the output row for one pier boundary node.
type PierResult struct {
	PierArcID ArcID      `json:"pier_arc_id"`
	PierNode  ArcNodeID  `json:"pier_node"`
	ModelNode MeshNodeID `json:"model_node"`
	DxV       float64    `json:"dxv"`
	Depth     float64    `json:"depth"`
	Velocity  float64    `json:"velocity"`

	// Location of the selected model node, set when the mesh is known.
	Easting  float64 `json:"easting"`
	Northing float64 `json:"northing"`
	// Geo is set only when reprojection is configured and succeeded.
	Geo *Geo `json:"geo,omitempty"`
}
