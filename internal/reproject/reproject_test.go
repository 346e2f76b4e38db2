package reproject

import (
	"testing"

	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wroge/wgs84"
)

func TestForEPSG(t *testing.T) {
	for _, code := range []string{"EPSG:2232", "epsg:2232", "2232", " 26913 "} {
		_, err := ForEPSG(code)
		assert.NoError(t, err, code)
	}

	for _, code := range []string{"EPSG:4326", "26916", "", "EPSG:", "colorado"} {
		_, err := ForEPSG(code)
		assert.ErrorIs(t, err, ErrUnsupported, code)
	}
}

func TestSupported(t *testing.T) {
	assert.Equal(t, []string{
		"EPSG:2231", "EPSG:2232", "EPSG:2233",
		"EPSG:26910", "EPSG:26911", "EPSG:26912", "EPSG:26913", "EPSG:26914", "EPSG:26915",
	}, Supported())
}

func TestStatePlane_FalseOriginMapsToOrigin(t *testing.T) {
	r, err := ForEPSG("EPSG:2232")
	require.NoError(t, err)

	geo, err := r.ToWGS84(orb.Point{3000000, 1000000})
	require.NoError(t, err)
	assert.InDelta(t, 37.833333333, geo.Lat, 1e-7)
	assert.InDelta(t, -105.5, geo.Lon, 1e-7)
}

type clarke1866 struct{}

func (clarke1866) A() float64  { return 6378206.4 }
func (clarke1866) Fi() float64 { return 294.97869821 }

// NAD27 / Texas South Central worked example for Lambert Conic Conformal
// (2SP) from EPSG Guidance Note 7-2.
func TestStatePlane_TexasSouthCentralControlPoint(t *testing.T) {
	nad27 := wgs84.Datum{
		Spheroid: clarke1866{},
		Area:     wgs84.AreaFunc(func(lon, lat float64) bool { return true }),
	}
	zone := newStatePlane("texas south central", nad27, -99, 27+50.0/60, 28+23.0/60, 30+17.0/60, 2000000, 0)
	want := domain.Geo{Lat: 28.5, Lon: -96}

	p := zone.fromLonLat(want)
	assert.InDelta(t, 2963503.91, p.X(), 0.02)
	assert.InDelta(t, 254759.80, p.Y(), 0.02)

	got, err := zone.ToWGS84(orb.Point{2963503.91, 254759.80})
	require.NoError(t, err)
	assert.InDelta(t, want.Lat, got.Lat, 1e-7)
	assert.InDelta(t, want.Lon, got.Lon, 1e-7)
}

func TestStatePlane_RoundTrip(t *testing.T) {
	zones := map[string]statePlane{
		"north":   coloradoNorth,
		"central": coloradoCentral,
		"south":   coloradoSouth,
	}
	points := []domain.Geo{
		{Lat: 39.7392, Lon: -104.9903},
		{Lat: 38.8339, Lon: -104.8214},
		{Lat: 37.2753, Lon: -107.8801},
		{Lat: 40.5853, Lon: -105.0844},
	}
	for name, z := range zones {
		for _, g := range points {
			p := z.fromLonLat(g)
			got, err := z.ToWGS84(p)
			require.NoError(t, err, name)
			assert.InDelta(t, g.Lat, got.Lat, 1e-8, name)
			assert.InDelta(t, g.Lon, got.Lon, 1e-8, name)
		}
	}
}

func TestStatePlane_EastOfMeridianHasLargerEasting(t *testing.T) {
	p := coloradoCentral.fromLonLat(domain.Geo{Lat: 39.0, Lon: -104.5})
	assert.Greater(t, p.X(), 3000000.0)
}

func TestStatePlane_OutOfBounds(t *testing.T) {
	r, err := ForEPSG("EPSG:2232")
	require.NoError(t, err)

	_, err = r.ToWGS84(orb.Point{1e12, 1e12})
	assert.ErrorIs(t, err, wgs84.ErrOutOfBounds)
}

func TestUTM_CentralMeridian(t *testing.T) {
	r, err := ForEPSG("EPSG:26913")
	require.NoError(t, err)

	geo, err := r.ToWGS84(orb.Point{500000, 4427900})
	require.NoError(t, err)
	assert.InDelta(t, -105.0, geo.Lon, 1e-6)
	assert.InDelta(t, 40.0, geo.Lat, 0.01)
}

func TestUTM_OutOfRange(t *testing.T) {
	r, err := ForEPSG("EPSG:26913")
	require.NoError(t, err)

	_, err = r.ToWGS84(orb.Point{50, 4427900})
	assert.Error(t, err)
}
