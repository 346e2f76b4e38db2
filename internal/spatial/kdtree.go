package spatial

import (
	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// searchSlack widens the k-d tree query so rounding in the squared distance
// cannot drop a node sitting exactly on the radius. Survivors are re-checked
// with the exact inclusive test.
const searchSlack = 1e-9

// meshPoint adapts a ModelNode to kdtree.Comparable.
type meshPoint struct {
	node domain.ModelNode
}

func (p meshPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(meshPoint)
	return p.node.Point[d] - q.node.Point[d]
}

func (p meshPoint) Dims() int { return 2 }

// Distance returns the squared planar distance, as kdtree expects.
func (p meshPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(meshPoint)
	dx := p.node.Point[0] - q.node.Point[0]
	dy := p.node.Point[1] - q.node.Point[1]
	return dx*dx + dy*dy
}

type meshPoints []meshPoint

func (m meshPoints) Index(i int) kdtree.Comparable         { return m[i] }
func (m meshPoints) Len() int                              { return len(m) }
func (m meshPoints) Pivot(d kdtree.Dim) int                { return plane{meshPoints: m, Dim: d}.Pivot() }
func (m meshPoints) Slice(start, end int) kdtree.Interface { return m[start:end] }

// plane sorts meshPoints along one dimension for pivot selection.
type plane struct {
	kdtree.Dim
	meshPoints
}

func (p plane) Less(i, j int) bool {
	return p.meshPoints[i].node.Point[p.Dim] < p.meshPoints[j].node.Point[p.Dim]
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.meshPoints = p.meshPoints[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.meshPoints[i], p.meshPoints[j] = p.meshPoints[j], p.meshPoints[i]
}

// KDIndex answers radius queries from a k-d tree over the mesh nodes.
type KDIndex struct {
	tree *kdtree.Tree
}

// NewKDIndex builds a k-d tree over the nodes of mesh.
func NewKDIndex(mesh domain.Mesh) *KDIndex {
	pts := make(meshPoints, len(mesh.Nodes))
	for i, n := range mesh.Nodes {
		pts[i] = meshPoint{node: n}
	}
	return &KDIndex{tree: kdtree.New(pts, false)}
}

func (k *KDIndex) Within(p orb.Point, radius float64) []domain.ModelNode {
	if k.tree.Root == nil || radius < 0 {
		return nil
	}
	r := radius + searchSlack
	keep := kdtree.NewDistKeeper(r * r)
	k.tree.NearestSet(keep, meshPoint{node: domain.ModelNode{Point: p}})

	var out []domain.ModelNode
	for _, c := range keep.Heap {
		mp, ok := c.Comparable.(meshPoint)
		if !ok {
			continue
		}
		if within(p, mp.node.Point, radius) {
			out = append(out, mp.node)
		}
	}
	sortBySeq(out)
	return out
}
