// Package csv writes pier results as a delimited output table.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
)

// Header is the fixed part of the output table.
var Header = []string{"Pier Arc ID", "Pier Node", "Model Node", "DxV", "Depth", "Velocity"}

var (
	coordinateHeader = []string{"Easting", "Northing"}
	geoHeader        = []string{"Latitude", "Longitude"}
)

// Options selects optional columns.
type Options struct {
	Coordinates bool // Easting, Northing of the model node
	Geo         bool // Latitude, Longitude; blank where reprojection failed
}

// Write writes a header row and one row per result in the given order.
func Write(w io.Writer, results []domain.PierResult, o Options) error {
	cw := csv.NewWriter(w)

	header := append([]string(nil), Header...)
	if o.Coordinates {
		header = append(header, coordinateHeader...)
	}
	if o.Geo {
		header = append(header, geoHeader...)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range results {
		if err := cw.Write(record(r, o)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func record(r domain.PierResult, o Options) []string {
	row := []string{
		string(r.PierArcID),
		string(r.PierNode),
		string(r.ModelNode),
		strconv.FormatFloat(r.DxV, 'f', 2, 64),
		strconv.FormatFloat(r.Depth, 'f', 4, 64),
		strconv.FormatFloat(r.Velocity, 'f', 4, 64),
	}
	if o.Coordinates {
		row = append(row,
			strconv.FormatFloat(r.Easting, 'f', 3, 64),
			strconv.FormatFloat(r.Northing, 'f', 3, 64),
		)
	}
	if o.Geo {
		if r.Geo == nil {
			row = append(row, "", "")
		} else {
			row = append(row,
				strconv.FormatFloat(r.Geo.Lat, 'f', 7, 64),
				strconv.FormatFloat(r.Geo.Lon, 'f', 7, 64),
			)
		}
	}
	return row
}
