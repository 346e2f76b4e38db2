// Package spatial attributes mesh nodes to pier boundary nodes by planar
// distance.
package spatial

import (
	"sort"

	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultRadius is the search radius in model length units (usually feet).
const DefaultRadius = 15.0

// Index finds mesh nodes near a point. Results are ordered by the node's
// position in the geometry file.
type Index interface {
	Within(p orb.Point, radius float64) []domain.ModelNode
}

// Attribution holds the candidate mesh nodes for one pier boundary node.
type Attribution struct {
	Pier       domain.PierBoundaryNode
	Candidates []domain.ModelNode
}

// Attribute finds the candidates within radius of every pier, in pier order.
func Attribute(piers []domain.PierBoundaryNode, idx Index, radius float64) []Attribution {
	out := make([]Attribution, len(piers))
	for i, p := range piers {
		out[i] = Attribution{Pier: p, Candidates: idx.Within(p.Point, radius)}
	}
	return out
}

// within is the inclusive radius test every index applies last.
func within(a, b orb.Point, radius float64) bool {
	return planar.Distance(a, b) <= radius
}

func sortBySeq(nodes []domain.ModelNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Seq < nodes[j].Seq })
}

// LinearIndex scans every node. It is the reference implementation.
type LinearIndex struct {
	nodes []domain.ModelNode
}

// NewLinearIndex indexes the nodes of mesh.
func NewLinearIndex(mesh domain.Mesh) *LinearIndex {
	return &LinearIndex{nodes: mesh.Nodes}
}

func (l *LinearIndex) Within(p orb.Point, radius float64) []domain.ModelNode {
	var out []domain.ModelNode
	for _, n := range l.nodes {
		if within(p, n.Point, radius) {
			out = append(out, n)
		}
	}
	return out
}
