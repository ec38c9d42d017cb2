package core

import (
	"math"

	"github.com/signalsfoundry/orbitpool/model"
)

// WGS-84 ellipsoid constants used for the observer's geodetic position.
const (
	wgs84SemiMajorKm = 6378.137
	wgs84Flattening  = 1.0 / 298.257223563
)

func norm(v model.Vec3) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func sub(a, b model.Vec3) model.Vec3 {
	return model.Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

// geodeticToECEF converts a geodetic position (degrees, metres above the
// ellipsoid) to ECEF kilometres.
func geodeticToECEF(latDeg, lonDeg, altM float64) model.Vec3 {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180
	altKm := altM / 1000

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	// Radius of curvature in the prime vertical.
	e2 := wgs84Flattening * (2 - wgs84Flattening)
	n := wgs84SemiMajorKm / math.Sqrt(1-e2*sinLat*sinLat)

	return model.Vec3{
		X: (n + altKm) * cosLat * math.Cos(lon),
		Y: (n + altKm) * cosLat * math.Sin(lon),
		Z: (n*(1-e2) + altKm) * sinLat,
	}
}

// ecefToENU rotates the ECEF vector from the observer to the satellite into
// the observer's local east/north/up frame.
func ecefToENU(obsToSat model.Vec3, latDeg, lonDeg float64) (e, n, u float64) {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180

	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)

	e = -sinLon*obsToSat.X + cosLon*obsToSat.Y
	n = -sinLat*cosLon*obsToSat.X - sinLat*sinLon*obsToSat.Y + cosLat*obsToSat.Z
	u = cosLat*cosLon*obsToSat.X + cosLat*sinLon*obsToSat.Y + sinLat*obsToSat.Z
	return e, n, u
}
