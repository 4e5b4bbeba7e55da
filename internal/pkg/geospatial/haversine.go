package geospatial

import "math"

const (
	earthRadiusKm = 6371.0

	// TileSize is the edge length in pixels of a web map tile at zoom 0.
	TileSize = 256.0

	// maxMercatorLat clips latitudes to the square Web Mercator world.
	maxMercatorLat = 85.0511287798
)

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// MercatorProject converts a coordinate to world pixel space at the given zoom,
// with (0, 0) at the north-west corner of the map.
func MercatorProject(lat, lon, zoom float64) (x, y float64) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	scale := TileSize * math.Exp2(zoom)
	sinLat := math.Sin(toRad(lat))
	x = (lon + 180) / 360 * scale
	y = (0.5 - math.Log((1+sinLat)/(1-sinLat))/(4*math.Pi)) * scale
	return x, y
}

// MercatorUnproject is the inverse of MercatorProject.
func MercatorUnproject(x, y, zoom float64) (lat, lon float64) {
	scale := TileSize * math.Exp2(zoom)
	lon = x/scale*360 - 180
	n := math.Pi - 2*math.Pi*y/scale
	lat = toDeg(math.Atan(math.Sinh(n)))
	return lat, lon
}

// MetersPerPixel returns the ground resolution of a Web Mercator map at lat.
func MetersPerPixel(lat, zoom float64) float64 {
	circumference := 2 * math.Pi * earthRadiusKm * 1000
	return circumference * math.Cos(toRad(lat)) / (TileSize * math.Exp2(zoom))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
