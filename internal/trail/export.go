package trail

import (
	"bytes"
	"fmt"

	"backend-trailhub/internal/shared/apperr"
	"backend-trailhub/internal/shared/geo"

	"github.com/tkrajina/gpxgo/gpx"
	kml "github.com/twpayne/go-kml"
	"github.com/twpayne/go-polyline"
)

const (
	FormatGPX      = "gpx"
	FormatKML      = "kml"
	FormatPolyline = "polyline"
)

// Export is an encoded trail ready to be sent as a download.
type Export struct {
	ContentType string
	Extension   string
	Data        []byte
}

// Encode renders t in the given format. Points of interest become GPX
// waypoints or KML point placemarks; the polyline format carries the route
// only.
func Encode(t Trail, format string) (Export, error) {
	switch format {
	case FormatGPX, "":
		data, err := encodeGPX(t)
		if err != nil {
			return Export{}, err
		}
		return Export{ContentType: "application/gpx+xml", Extension: "gpx", Data: data}, nil
	case FormatKML:
		data, err := encodeKML(t)
		if err != nil {
			return Export{}, err
		}
		return Export{ContentType: "application/vnd.google-earth.kml+xml", Extension: "kml", Data: data}, nil
	case FormatPolyline:
		return Export{ContentType: "text/plain; charset=utf-8", Extension: "txt", Data: encodePolyline(t.Coordinates)}, nil
	default:
		return Export{}, apperr.Validation(fmt.Sprintf("format must be one of: %s, %s, %s", FormatGPX, FormatKML, FormatPolyline))
	}
}

func encodeGPX(t Trail) ([]byte, error) {
	points := make([]gpx.GPXPoint, len(t.Coordinates))
	for i, c := range t.Coordinates {
		points[i] = gpxPoint(c)
	}

	doc := gpx.GPX{
		Creator: "trailhub",
		Name:    trailName(t),
		Tracks: []gpx.GPXTrack{{
			Name:     trailName(t),
			Segments: []gpx.GPXTrackSegment{{Points: points}},
		}},
	}
	if t.Description != nil {
		doc.Description = *t.Description
	}
	for _, p := range t.PointsOfInterest {
		wp := gpxPoint(p.Coordinate)
		wp.Name = p.Description
		doc.Waypoints = append(doc.Waypoints, wp)
	}

	return doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
}

func gpxPoint(c geo.Coordinate) gpx.GPXPoint {
	p := gpx.GPXPoint{Point: gpx.Point{Latitude: c.Latitude, Longitude: c.Longitude}}
	if c.Altitude != nil {
		p.Elevation = *gpx.NewNullableFloat64(*c.Altitude)
	}
	return p
}

func encodeKML(t Trail) ([]byte, error) {
	route := make([]kml.Coordinate, len(t.Coordinates))
	for i, c := range t.Coordinates {
		route[i] = kmlCoordinate(c)
	}

	features := []kml.Element{
		kml.Name(trailName(t)),
		kml.Placemark(
			kml.Name(trailName(t)),
			kml.LineString(kml.Coordinates(route...)),
		),
	}
	for _, p := range t.PointsOfInterest {
		features = append(features, kml.Placemark(
			kml.Name(p.Description),
			kml.Point(kml.Coordinates(kmlCoordinate(p.Coordinate))),
		))
	}

	var buf bytes.Buffer
	if err := kml.KML(kml.Document(features...)).WriteIndent(&buf, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func kmlCoordinate(c geo.Coordinate) kml.Coordinate {
	k := kml.Coordinate{Lon: c.Longitude, Lat: c.Latitude}
	if c.Altitude != nil {
		k.Alt = *c.Altitude
	}
	return k
}

// encodePolyline uses the Google encoded polyline format, latitude first.
func encodePolyline(coords []geo.Coordinate) []byte {
	pts := make([][]float64, len(coords))
	for i, c := range coords {
		pts[i] = []float64{c.Latitude, c.Longitude}
	}
	return polyline.EncodeCoords(pts)
}

func trailName(t Trail) string {
	if t.Name != nil && *t.Name != "" {
		return *t.Name
	}
	return t.ID
}
