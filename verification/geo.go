package verification

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// Point converts the coordinates to an orb point (longitude first).
func (c Coordinates) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// DistanceMeters is the haversine distance between two coordinates.
func DistanceMeters(a, b Coordinates) float64 {
	return geo.DistanceHaversine(a.Point(), b.Point())
}

// Feature renders the request location as a GeoJSON point feature for map
// widgets.
func Feature(req AddressRequest) *geojson.Feature {
	f := geojson.NewFeature(req.Coordinates.Point())
	f.ID = req.ID
	f.Properties["request_id"] = req.ID
	f.Properties["resident_id"] = req.ResidentID
	f.Properties["status"] = string(req.Status)
	if req.Certificate != nil {
		f.Properties["certificate_number"] = req.Certificate.Number
	}
	return f
}
