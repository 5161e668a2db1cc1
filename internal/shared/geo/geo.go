package geo

import (
	"errors"
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// Statute miles per degree of arc: 60 nautical miles times 1.1515.
const milesPerDegree = 60 * 1.1515

// ErrOutsideSegment is returned when an interpolation target falls outside the
// segment or trail it was asked for.
var ErrOutsideSegment = errors.New("target distance outside segment")

// Coordinate is one GPS sample. Only latitude and longitude are required.
type Coordinate struct {
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Accuracy         *float64 `json:"accuracy,omitempty"`
	Altitude         *float64 `json:"altitude,omitempty"`
	AltitudeAccuracy *float64 `json:"altitudeAccuracy,omitempty"`
	Heading          *float64 `json:"heading,omitempty"`
	Speed            *float64 `json:"speed,omitempty"`
}

// Marker is the interpolated position at a whole mile along a trail.
type Marker struct {
	Mile       int        `json:"mile"`
	Coordinate Coordinate `json:"coordinate"`
}

// Distance returns the great-circle distance between a and b in statute miles
// using the spherical law of cosines.
func Distance(a, b Coordinate) float64 {
	if a.Latitude == b.Latitude && a.Longitude == b.Longitude {
		return 0
	}

	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	theta := radians(a.Longitude - b.Longitude)

	cos := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(theta)
	// rounding can push identical points just past 1
	cos = math.Max(-1, math.Min(1, cos))

	return degrees(math.Acos(cos)) * milesPerDegree
}

// FindPoint interpolates linearly in lat/lon space between a and b at target
// miles from a. It is an approximation meant for short segments.
func FindPoint(a, b Coordinate, target float64) (Coordinate, error) {
	total := Distance(a, b)
	if total == 0 {
		if target == 0 {
			return Coordinate{Latitude: a.Latitude, Longitude: a.Longitude}, nil
		}
		return Coordinate{}, ErrOutsideSegment
	}

	t := target / total
	const eps = 1e-9
	if t < -eps || t > 1+eps {
		return Coordinate{}, ErrOutsideSegment
	}
	t = math.Max(0, math.Min(1, t))

	return Coordinate{
		Latitude:  a.Latitude + t*(b.Latitude-a.Latitude),
		Longitude: a.Longitude + t*(b.Longitude-a.Longitude),
	}, nil
}

// TotalDistance sums Distance over consecutive pairs. Fewer than two
// coordinates yield 0.
func TotalDistance(coords []Coordinate) float64 {
	total := 0.0
	for i := 0; i+1 < len(coords); i++ {
		total += Distance(coords[i], coords[i+1])
	}
	return total
}

// PointAlong returns the point target miles along the trail described by coords.
func PointAlong(coords []Coordinate, target float64) (Coordinate, error) {
	if len(coords) < 2 || target < 0 {
		return Coordinate{}, ErrOutsideSegment
	}

	walked := 0.0
	for i := 0; i+1 < len(coords); i++ {
		seg := Distance(coords[i], coords[i+1])
		if target <= walked+seg {
			return FindPoint(coords[i], coords[i+1], target-walked)
		}
		walked += seg
	}
	return Coordinate{}, ErrOutsideSegment
}

// MileMarkers places a marker at every whole mile along the trail.
func MileMarkers(coords []Coordinate) []Marker {
	markers := []Marker{}
	if len(coords) < 2 {
		return markers
	}

	next := 1
	walked := 0.0
	for i := 0; i+1 < len(coords); i++ {
		seg := Distance(coords[i], coords[i+1])
		for float64(next) <= walked+seg {
			p, err := FindPoint(coords[i], coords[i+1], float64(next)-walked)
			if err != nil {
				break
			}
			markers = append(markers, Marker{Mile: next, Coordinate: p})
			next++
		}
		walked += seg
	}
	return markers
}

// Valid reports whether the coordinate is a finite, in-range lat/lng pair.
func Valid(c Coordinate) bool {
	return s2.LatLngFromDegrees(c.Latitude, c.Longitude).IsValid()
}

// LineString converts the coordinates to an orb geometry (lon, lat order).
func LineString(coords []Coordinate) orb.LineString {
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, orb.Point{c.Longitude, c.Latitude})
	}
	return ls
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
