package trail

import (
	"time"

	"backend-trailhub/internal/formdata"
	"backend-trailhub/internal/poi"
	"backend-trailhub/internal/shared/geo"
	"backend-trailhub/internal/storage"
)

const (
	DifficultyEasy     = "easy"
	DifficultyModerate = "moderate"
	DifficultyHard     = "hard"
)

// Summary is a trail without its geometry or points of interest.
type Summary struct {
	ID          string    `json:"trailId"`
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Difficulty  string    `json:"difficulty"`
	IsClosed    bool      `json:"isClosed"`
	CreatedBy   int64     `json:"createdBy"`
	UpdatedBy   *int64    `json:"updatedBy"`
	Distance    float64   `json:"distance"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Trail struct {
	Summary
	Coordinates      []geo.Coordinate      `json:"TrailCoords"`
	PointsOfInterest []poi.PointOfInterest `json:"PointsOfInterests"`
}

// Submission is a trail save request as it arrived: the flattened form
// fields plus the POI_image uploads in submission order.
type Submission struct {
	Body   formdata.Body
	Images []storage.Upload
}

// UpdateInput is a partial trail edit. TrailCoords fields in Body, when
// present, replace the whole coordinate list.
type UpdateInput struct {
	Body formdata.Body
}

// Draft is a submission that passed validation.
type Draft struct {
	Name        *string
	Description *string
	Difficulty  string
	IsClosed    bool
	CreatedBy   int64
	Coordinates []geo.Coordinate
	POIs        []DraftPOI
}

type DraftPOI struct {
	Fields poi.Fields
	Image  storage.Upload
}

// Patch is a validated update. Nil fields keep their stored value.
type Patch struct {
	Name        *string
	Description *string
	Difficulty  *string
	IsClosed    *bool
	UpdatedBy   int64
	Coordinates []geo.Coordinate
}

type header struct {
	Name        *string `form:"name"`
	Description *string `form:"description"`
	Difficulty  string  `form:"difficulty" validate:"required,oneof=easy moderate hard"`
	IsClosed    *bool   `form:"isClosed"`
	CreatedBy   *int64  `form:"createdBy" validate:"required,min=1"`
}

type updateHeader struct {
	Name        *string `form:"name"`
	Description *string `form:"description"`
	Difficulty  *string `form:"difficulty" validate:"omitempty,oneof=easy moderate hard"`
	IsClosed    *bool   `form:"isClosed"`
	UpdatedBy   *int64  `form:"updatedBy" validate:"required,min=1"`
}

type coordFields struct {
	Latitude         *float64 `form:"latitude" validate:"required"`
	Longitude        *float64 `form:"longitude" validate:"required"`
	Accuracy         *float64 `form:"accuracy" validate:"omitempty,min=0"`
	Altitude         *float64 `form:"altitude"`
	AltitudeAccuracy *float64 `form:"altitudeAccuracy" validate:"omitempty,min=0"`
	Heading          *float64 `form:"heading"`
	Speed            *float64 `form:"speed"`
}

func (f coordFields) coordinate() geo.Coordinate {
	return geo.Coordinate{
		Latitude:         *f.Latitude,
		Longitude:        *f.Longitude,
		Accuracy:         f.Accuracy,
		Altitude:         f.Altitude,
		AltitudeAccuracy: f.AltitudeAccuracy,
		Heading:          f.Heading,
		Speed:            f.Speed,
	}
}
