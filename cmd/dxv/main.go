// Command dxv extracts the peak depth × velocity (DxV) at bridge pier
// boundary nodes from SRH-2D model output.
//
// Usage:
//
//	dxv extract --map bridge.map --geom bridge.srhgeom \
//	  --depth Run1_Water_Depth_ft.h5 --velocity Run1_Vel_Mag_ft_p_s.h5 \
//	  --out piers.csv --report piers.html
//
//	dxv serve
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
