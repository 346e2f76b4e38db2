package domain

import (
	"fmt"
	"io"
)

const geometryNodeKeyword = "Node"

// Mesh is the node table of a geometry file, in file order.
type Mesh struct {
	Nodes []ModelNode
	// Skipped counts "Node" lines with too few tokens.
	Skipped int
	index   map[MeshNodeID]int
}

// NewMesh builds a Mesh from nodes, assigning each its position as Seq.
func NewMesh(nodes []ModelNode) Mesh {
	m := Mesh{Nodes: make([]ModelNode, len(nodes)), index: make(map[MeshNodeID]int, len(nodes))}
	for i, n := range nodes {
		n.Seq = i
		m.Nodes[i] = n
		m.index[n.ID] = i
	}
	return m
}

// Node looks up a mesh node by id.
func (m Mesh) Node(id MeshNodeID) (ModelNode, bool) {
	i, ok := m.index[id]
	if !ok {
		return ModelNode{}, false
	}
	return m.Nodes[i], true
}

// Len returns the number of mesh nodes.
func (m Mesh) Len() int { return len(m.Nodes) }

// ParseGeometry reads every "Node <id> <x> <y> ..." line of a geometry file.
// Node ids must be positive integers and coordinates must parse; anything
// else is a *MalformedInputError.
func ParseGeometry(r io.Reader) (Mesh, error) {
	lines, err := scanLines(r)
	if err != nil {
		return Mesh{}, err
	}

	var (
		nodes   []ModelNode
		skipped int
		seen    = make(map[MeshNodeID]int)
	)
	for i, l := range lines {
		if !hasToken(l.tokens, geometryNodeKeyword) {
			continue
		}
		if len(l.tokens) < 4 {
			skipped++
			continue
		}

		id := MeshNodeID(l.tokens[1])
		if _, err := id.Column(); err != nil {
			return Mesh{}, &MalformedInputError{File: "geometry", Line: i + 1, Field: "node id", Value: l.tokens[1], Err: err}
		}
		if prev, dup := seen[id]; dup {
			return Mesh{}, &MalformedInputError{
				File: "geometry", Line: i + 1, Field: "node id", Value: l.tokens[1],
				Err: fmt.Errorf("duplicate of line %d", prev),
			}
		}
		seen[id] = i + 1

		pt, err := parsePoint("geometry", i, l.tokens[2], l.tokens[3])
		if err != nil {
			return Mesh{}, err
		}
		nodes = append(nodes, ModelNode{ID: id, Point: pt})
	}

	m := NewMesh(nodes)
	m.Skipped = skipped
	return m, nil
}
