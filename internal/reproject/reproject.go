// Package reproject converts projected model coordinates to WGS-84
// latitude/longitude. NAD83 is treated as WGS-84; the datum shift is
// below a metre in the conterminous US.
package reproject

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	"github.com/paulmach/orb"
)

// ErrUnsupported is returned for EPSG codes without a registered projection.
var ErrUnsupported = errors.New("unsupported coordinate reference system")

// Reprojector converts a projected point ([easting, northing]) to latitude/longitude.
type Reprojector interface {
	ToWGS84(p orb.Point) (domain.Geo, error)
}

var registry = map[int]Reprojector{
	2231: coloradoNorth,
	2232: coloradoCentral,
	2233: coloradoSouth,
}

func init() {
	for zone := 10; zone <= 15; zone++ {
		registry[26900+zone] = utmZone{zone: zone}
	}
}

// ForEPSG returns the projection for code, written either as "EPSG:2232" or "2232".
func ForEPSG(code string) (Reprojector, error) {
	n, err := parseCode(code)
	if err != nil {
		return nil, err
	}
	r, ok := registry[n]
	if !ok {
		return nil, fmt.Errorf("EPSG:%d: %w", n, ErrUnsupported)
	}
	return r, nil
}

// Supported lists the registered codes in ascending order.
func Supported() []string {
	codes := make([]int, 0, len(registry))
	for c := range registry {
		codes = append(codes, c)
	}
	slices.Sort(codes)

	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = "EPSG:" + strconv.Itoa(c)
	}
	return out
}

func parseCode(code string) (int, error) {
	s := strings.TrimSpace(code)
	if len(s) >= 5 && strings.EqualFold(s[:5], "EPSG:") {
		s = s[5:]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", code, ErrUnsupported)
	}
	return n, nil
}
