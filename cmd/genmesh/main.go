// Command genmesh writes a synthetic, self-consistent SRH-2D case: a
// rectangular mesh (.srhgeom), an SMS map file with pier arcs laid along
// the mesh centreline, and depth/velocity result files (.h5). It parses the
// generated text files with the domain package so the fixtures always match
// what the extractor accepts.
//
// Usage:
//
//	go run ./cmd/genmesh -out data/generated -cols 60 -rows 20 -piers 4 -steps 12
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	"github.com/couchcryptid/pier-dxv-etl/internal/raster"
	"gonum.org/v1/hdf5"
)

const (
	scourRun  = "Bridge Scour"
	reference = "Synthetic"
)

type params struct {
	out     string
	cols    int
	rows    int
	spacing float64
	piers   int
	steps   int
	seed    uint64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var p params
	flag.StringVar(&p.out, "out", "", "output directory")
	flag.IntVar(&p.cols, "cols", 60, "mesh nodes along x")
	flag.IntVar(&p.rows, "rows", 20, "mesh nodes along y")
	flag.Float64Var(&p.spacing, "spacing", 5, "node spacing in feet")
	flag.IntVar(&p.piers, "piers", 4, "number of pier arcs")
	flag.IntVar(&p.steps, "steps", 12, "time steps in the result files")
	flag.Uint64Var(&p.seed, "seed", 1, "random seed for the result values")
	flag.Parse()

	if p.out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if p.cols < 2 || p.rows < 2 || p.piers < 1 || p.steps < 1 || p.spacing <= 0 {
		return fmt.Errorf("cols and rows must be >= 2, piers and steps >= 1, spacing > 0")
	}
	if err := os.MkdirAll(p.out, 0o755); err != nil {
		return err
	}

	geomPath := filepath.Join(p.out, "synthetic.srhgeom")
	mapPath := filepath.Join(p.out, "synthetic.map")
	if err := os.WriteFile(geomPath, []byte(geometryText(p)), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(mapPath, []byte(mapText(p)), 0o644); err != nil {
		return err
	}
	if err := verify(geomPath, mapPath, p); err != nil {
		return err
	}

	depth, velocity := results(p)
	depthPath := filepath.Join(p.out, reference+"_"+raster.DepthDataset+".h5")
	velocityPath := filepath.Join(p.out, reference+"_"+raster.VelocityDataset+".h5")
	if err := writeResult(depthPath, raster.DepthDataset, depth); err != nil {
		return err
	}
	if err := writeResult(velocityPath, raster.VelocityDataset, velocity); err != nil {
		return err
	}

	fmt.Printf("Wrote %s, %s, %s, %s\n", geomPath, mapPath, depthPath, velocityPath)
	return nil
}

// nodeAt is the 1-based mesh node id at column c, row r.
func nodeAt(p params, c, r int) int {
	return r*p.cols + c + 1
}

func geometryText(p params) string {
	var b strings.Builder
	b.WriteString("SRHGEOM 30\n")
	b.WriteString("Name \"synthetic\"\n")
	b.WriteString("GridUnit \"FOOT\"\n")

	elem := 1
	for r := 0; r < p.rows-1; r++ {
		for c := 0; c < p.cols-1; c++ {
			fmt.Fprintf(&b, "Elem %d %d %d %d %d\n", elem,
				nodeAt(p, c, r), nodeAt(p, c+1, r), nodeAt(p, c+1, r+1), nodeAt(p, c, r+1))
			elem++
		}
	}
	for r := 0; r < p.rows; r++ {
		for c := 0; c < p.cols; c++ {
			x, y := float64(c)*p.spacing, float64(r)*p.spacing
			fmt.Fprintf(&b, "Node %d %.3f %.3f %.3f\n", nodeAt(p, c, r), x, y, 5.0)
		}
	}
	return b.String()
}

// pierNodes returns the two boundary nodes of pier arc i, half a cell off the
// mesh so attribution is exercised away from exact node positions.
func pierNodes(p params, i int) [2][2]float64 {
	width := float64(p.cols-1) * p.spacing
	x := width * float64(i+1) / float64(p.piers+1)
	y := float64(p.rows-1) * p.spacing / 2
	off := p.spacing / 2
	return [2][2]float64{{x - off, y + off}, {x + off, y + off}}
}

func mapText(p params) string {
	var b strings.Builder
	b.WriteString("MAP VERSION 8\nBEGCOV\n")
	fmt.Fprintf(&b, "COVNAME \"%s\"\nCOVELEV 0.000000\n", scourRun)
	for i := 0; i < p.piers; i++ {
		for j, xy := range pierNodes(p, i) {
			fmt.Fprintf(&b, "NODE\nXY %.3f %.3f 0.0\nID %d\nEND\n", xy[0], xy[1], 100+2*i+j)
		}
	}
	for i := 0; i < p.piers; i++ {
		fmt.Fprintf(&b, "ARC\nID %d\nARCELEVATION 0.000000\nNODES %d %d\narcType 5\nEND\n", i+1, 100+2*i, 101+2*i)
	}
	b.WriteString("ENDCOV\n")
	return b.String()
}

func verify(geomPath, mapPath string, p params) error {
	gf, err := os.Open(geomPath)
	if err != nil {
		return err
	}
	defer gf.Close()
	mesh, err := domain.ParseGeometry(gf)
	if err != nil {
		return fmt.Errorf("generated geometry does not parse: %w", err)
	}
	if mesh.Len() != p.cols*p.rows {
		return fmt.Errorf("generated geometry has %d nodes, want %d", mesh.Len(), p.cols*p.rows)
	}

	mf, err := os.Open(mapPath)
	if err != nil {
		return err
	}
	defer mf.Close()
	data, err := domain.ParseMapFile(mf, scourRun)
	if err != nil {
		return fmt.Errorf("generated map does not parse: %w", err)
	}
	if len(data.Piers) != 2*p.piers {
		return fmt.Errorf("generated map has %d pier nodes, want %d", len(data.Piers), 2*p.piers)
	}
	return nil
}

// results builds [time][node] depth and velocity rows. Flow peaks mid-run and
// is strongest along the centreline.
func results(p params) (depth, velocity [][]float32) {
	rng := rand.New(rand.NewPCG(p.seed, p.seed^0x9e3779b97f4a7c15))
	n := p.cols * p.rows
	mid := float64(p.rows-1) / 2

	depth = make([][]float32, p.steps)
	velocity = make([][]float32, p.steps)
	for t := range p.steps {
		phase := math.Sin(math.Pi * float64(t+1) / float64(p.steps+1))
		depth[t] = make([]float32, n)
		velocity[t] = make([]float32, n)
		for r := 0; r < p.rows; r++ {
			channel := 1 - math.Abs(float64(r)-mid)/(mid+1)
			for c := 0; c < p.cols; c++ {
				i := nodeAt(p, c, r) - 1
				depth[t][i] = float32(math.Max(0, 6*channel*phase+0.2*rng.NormFloat64()))
				velocity[t][i] = float32(math.Max(0, 4*channel*phase+0.1*rng.NormFloat64()))
			}
		}
	}
	return depth, velocity
}

// writeResult stores rows as <root>/<reference>/<dataset>/Values.
func writeResult(path, dataset string, rows [][]float32) error {
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	root, err := f.CreateGroup("Datasets")
	if err != nil {
		return err
	}
	defer root.Close()
	ref, err := root.CreateGroup(reference)
	if err != nil {
		return err
	}
	defer ref.Close()
	grp, err := ref.CreateGroup(dataset)
	if err != nil {
		return err
	}
	defer grp.Close()

	steps, nodes := uint(len(rows)), uint(len(rows[0]))
	flat := make([]float32, 0, steps*nodes)
	for _, r := range rows {
		flat = append(flat, r...)
	}
	space, err := hdf5.CreateSimpleDataspace([]uint{steps, nodes}, nil)
	if err != nil {
		return err
	}
	defer space.Close()
	ds, err := grp.CreateDataset("Values", hdf5.T_NATIVE_FLOAT, space)
	if err != nil {
		return err
	}
	defer ds.Close()
	if err := ds.Write(&flat); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
