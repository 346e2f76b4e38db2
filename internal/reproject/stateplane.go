package reproject

import (
	"fmt"

	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	"github.com/paulmach/orb"
	"github.com/wroge/wgs84"
)

// usSurveyFoot in metres.
const usSurveyFoot = 1200.0 / 3937.0

// statePlane is a Lambert Conformal Conic (2SP) zone whose grid is in US
// survey feet. Latitude/longitude are on the zone's own datum.
type statePlane struct {
	name string
	geo  wgs84.GeographicReferenceSystem
	grid wgs84.ProjectedReferenceSystem
}

// newStatePlane takes the false origin and standard parallels in degrees and
// the false easting/northing in US survey feet.
func newStatePlane(name string, datum wgs84.Datum, lon0, lat0, lat1, lat2, falseE, falseN float64) statePlane {
	return statePlane{
		name: name,
		geo:  datum.LonLat(),
		grid: datum.LambertConformalConic2SP(lon0, lat0, lat1, lat2, falseE*usSurveyFoot, falseN*usSurveyFoot),
	}
}

// NAD83 / Colorado zones, EPSG:2231-2233.
var (
	coloradoNorth   = newStatePlane("colorado north", wgs84.NAD83(), -105.5, 39.333333333333336, 40.78333333333333, 39.71666666666667, 3000000, 1000000)
	coloradoCentral = newStatePlane("colorado central", wgs84.NAD83(), -105.5, 37.833333333333336, 39.75, 38.45, 3000000, 1000000)
	coloradoSouth   = newStatePlane("colorado south", wgs84.NAD83(), -105.5, 36.666666666666664, 38.43333333333333, 37.233333333333334, 3000000, 1000000)
)

func (s statePlane) ToWGS84(p orb.Point) (domain.Geo, error) {
	lon, lat, _, err := s.geo.SafeFrom(s.grid)(p.X()*usSurveyFoot, p.Y()*usSurveyFoot, 0)
	if err != nil {
		return domain.Geo{}, fmt.Errorf("%s: %w", s.name, err)
	}
	return domain.Geo{Lat: lat, Lon: lon}, nil
}

// fromLonLat is the forward projection, returning US survey feet.
func (s statePlane) fromLonLat(g domain.Geo) orb.Point {
	e, n, _ := s.geo.To(s.grid)(g.Lon, g.Lat, 0)
	return orb.Point{e / usSurveyFoot, n / usSurveyFoot}
}
