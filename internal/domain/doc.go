// Package domain models SRH-2D hydraulic model inputs and the peak
// depth × velocity (DxV) results extracted at bridge piers.
//
// # Data Sources
//
// An SRH-2D scenario exported from SMS produces the two text files parsed here
// and two HDF5 (XMDF) result files read by the raster package:
//
//	<scenario>.map        boundary-condition coverages (arcs, nodes, attributes)
//	<scenario>.srhgeom    mesh geometry (every node and element)
//	<run>_Water_Depth_ft.h5
//	<run>_Vel_Mag_ft_p_s.h5
//
// # Map File Conventions
//
// The map file is free-form and line oriented. Only three block shapes matter:
//
//	NODE                      <- line j-2, must be exactly "NODE"
//	XY 100.0 200.0 0.0        <- line j-1, easting and northing
//	ID 10                     <- line j,   boundary node id
//
//	ARC
//	ID 7                      <- line i-3, arc id
//	ARCELEVATION 0.000000
//	NODES 10 11               <- line i-1, the arc's two end nodes
//	arcType 5                 <- line i,   pier arc marker
//
// Coverages are introduced by a line carrying the scour-run label, e.g.
// COVNAME "Bridge Scour". Pier arcs are collected from the whole file, but
// boundary nodes only after the first scour-run line, so nodes belonging to
// other runs are never attributed.
//
// Map node ids are synthesized as "ID <n>" and arc ids as "ArcID <n>". The
// geometry file keeps bare node numbers, so the two id spaces are typed
// separately ([ArcNodeID], [MeshNodeID]) and converted explicitly.
//
// # Geometry File Conventions
//
//	Node 10 100.0 200.0 0.0   <- id, easting, northing, elevation
//
// Mesh node ids are 1-based integers; they double as the column index into
// the [time][node] result arrays.
//
// # Units
//
// Coordinates are planar in the model's projected CRS (US survey feet for
// state plane models). Depth is ft and velocity ft/s, so DxV is ft²/s.
package domain
