package poi

import (
	"time"

	"backend-trailhub/internal/formdata"
	"backend-trailhub/internal/shared/geo"
	"backend-trailhub/internal/storage"
)

type PointOfInterest struct {
	ID          string  `json:"pointsOfInterestId"`
	TrailID     string  `json:"trailId"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
	IsActive    bool    `json:"isActive"`
	geo.Coordinate
	CreatedBy *int64    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Fields is one point of interest as submitted in a form, either standalone
// or as element i of a trail's POI arrays.
type Fields struct {
	Description      string   `form:"description" validate:"required"`
	IsActive         *bool    `form:"isActive" validate:"required"`
	Latitude         *float64 `form:"latitude" validate:"required"`
	Longitude        *float64 `form:"longitude" validate:"required"`
	Accuracy         *float64 `form:"accuracy" validate:"omitempty,min=0"`
	Altitude         *float64 `form:"altitude"`
	AltitudeAccuracy *float64 `form:"altitudeAccuracy" validate:"omitempty,min=0"`
	Heading          *float64 `form:"heading"`
	Speed            *float64 `form:"speed"`
}

func (f Fields) Coordinate() geo.Coordinate {
	c := geo.Coordinate{
		Accuracy:         f.Accuracy,
		Altitude:         f.Altitude,
		AltitudeAccuracy: f.AltitudeAccuracy,
		Heading:          f.Heading,
		Speed:            f.Speed,
	}
	if f.Latitude != nil {
		c.Latitude = *f.Latitude
	}
	if f.Longitude != nil {
		c.Longitude = *f.Longitude
	}
	return c
}

// CreateInput is a standalone point of interest submission.
type CreateInput struct {
	TrailID   string
	CreatedBy int64
	Fields    formdata.Object
	Image     *storage.Upload
}

// UpdateInput carries the editable fields. Nil means unchanged.
type UpdateInput struct {
	Description *string
	IsActive    *string
	Image       *storage.Upload
}
