package reproject

import (
	"fmt"

	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	"github.com/im7mortal/UTM"
	"github.com/paulmach/orb"
)

// utmZone is a northern-hemisphere NAD83 UTM zone in metres.
type utmZone struct {
	zone int
}

func (u utmZone) ToWGS84(p orb.Point) (domain.Geo, error) {
	lat, lon, err := UTM.ToLatLon(p.X(), p.Y(), u.zone, "", true)
	if err != nil {
		return domain.Geo{}, fmt.Errorf("utm zone %dN: %w", u.zone, err)
	}
	return domain.Geo{Lat: lat, Lon: lon}, nil
}
