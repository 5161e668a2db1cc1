package trail

import (
	"strings"
	"testing"

	"backend-trailhub/internal/poi"
	"backend-trailhub/internal/shared/apperr"
	"backend-trailhub/internal/shared/geo"
)

func exportTrail() Trail {
	alt := 1200.0
	name := "Ridge Loop"
	return Trail{
		Summary: Summary{ID: trailID, Name: &name},
		Coordinates: []geo.Coordinate{
			{Latitude: 38.5, Longitude: -120.2, Altitude: &alt},
			{Latitude: 40.7, Longitude: -120.95},
			{Latitude: 43.252, Longitude: -126.453},
		},
		PointsOfInterest: []poi.PointOfInterest{{
			Description: "Falls overlook",
			Coordinate:  geo.Coordinate{Latitude: 40.7, Longitude: -120.95},
		}},
	}
}

func TestEncodePolyline(t *testing.T) {
	out, err := Encode(exportTrail(), FormatPolyline)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out.Data) != "_p~iF~ps|U_ulLnnqC_mqNvxq`@" {
		t.Fatalf("unexpected polyline %q", out.Data)
	}
}

func TestEncodeGPX(t *testing.T) {
	out, err := Encode(exportTrail(), FormatGPX)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	doc := string(out.Data)
	if out.ContentType != "application/gpx+xml" || out.Extension != "gpx" {
		t.Fatalf("unexpected export metadata %+v", out)
	}
	if strings.Count(doc, "<trkpt") != 3 || !strings.Contains(doc, "<wpt") || !strings.Contains(doc, "Falls overlook") {
		t.Fatalf("unexpected gpx %s", doc)
	}
	if !strings.Contains(doc, "<ele>1200") {
		t.Fatalf("expected elevation in %s", doc)
	}
}

func TestEncodeKML(t *testing.T) {
	out, err := Encode(exportTrail(), FormatKML)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	doc := string(out.Data)
	if !strings.Contains(doc, "<LineString>") || !strings.Contains(doc, "<Point>") || !strings.Contains(doc, "Ridge Loop") {
		t.Fatalf("unexpected kml %s", doc)
	}
	if !strings.Contains(doc, "-120.2,38.5,1200") {
		t.Fatalf("expected lon,lat,alt order in %s", doc)
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	if _, err := Encode(exportTrail(), "shp"); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
