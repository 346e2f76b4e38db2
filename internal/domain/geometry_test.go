package domain

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeometry_Fixture(t *testing.T) {
	mesh, err := ParseGeometry(openFixture(t, "bridge_scour.srhgeom"))
	require.NoError(t, err)

	require.Equal(t, 10, mesh.Len())
	assert.Zero(t, mesh.Skipped)

	n, ok := mesh.Node("4")
	require.True(t, ok)
	assert.Equal(t, orb.Point{100, 215.001}, n.Point)
	assert.Equal(t, 3, n.Seq)

	_, ok = mesh.Node("11")
	assert.False(t, ok)
}

func TestParseGeometry_KeepsRawIdentifiers(t *testing.T) {
	mesh, err := ParseGeometry(strings.NewReader("Node 0042 1.5 2.5 0\n"))
	require.NoError(t, err)
	require.Equal(t, 1, mesh.Len())
	assert.Equal(t, MeshNodeID("0042"), mesh.Nodes[0].ID)
}

func TestParseGeometry_ShortLineSkipped(t *testing.T) {
	mesh, err := ParseGeometry(strings.NewReader("Node 1 1.0\nNode 2 3.0 4.0 0.0\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, mesh.Len())
	assert.Equal(t, 1, mesh.Skipped)
}

func TestParseGeometry_Malformed(t *testing.T) {
	cases := []struct {
		name  string
		input string
		field string
	}{
		{name: "bad easting", input: "Node 1 abc 4.0 0", field: "easting"},
		{name: "bad northing", input: "Node 1 3.0 4,0 0", field: "northing"},
		{name: "non numeric id", input: "Node n1 3.0 4.0 0", field: "node id"},
		{name: "zero id", input: "Node 0 3.0 4.0 0", field: "node id"},
		{name: "duplicate id", input: "Node 1 3.0 4.0 0\nNode 1 5.0 6.0 0", field: "node id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseGeometry(strings.NewReader(tc.input))
			var malformed *MalformedInputError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, "geometry", malformed.File)
			assert.Equal(t, tc.field, malformed.Field)
		})
	}
}
