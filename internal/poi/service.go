package poi

import (
	"context"
	"errors"

	"backend-trailhub/internal/db"
	"backend-trailhub/internal/shared/apperr"
	"backend-trailhub/internal/shared/events"
	"backend-trailhub/internal/shared/geo"
	"backend-trailhub/internal/shared/validate"
	"backend-trailhub/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const metersPerMile = 1609.344

// UserChecker answers whether a user row exists.
type UserChecker interface {
	UserExists(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	db      db.Querier
	images  *storage.ImageStore
	users   UserChecker
	events  events.Notifier
	structs *validate.Structs
	log     *zap.Logger
}

func NewService(q db.Querier, images *storage.ImageStore, users UserChecker, notifier events.Notifier, log *zap.Logger) *Service {
	if notifier == nil {
		notifier = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:      q,
		images:  images,
		users:   users,
		events:  notifier,
		structs: validate.NewStructs(),
		log:     log,
	}
}

// Create records a point of interest captured outside a trail recording. The
// image, when present, is stored first and removed again if the insert fails.
func (s *Service) Create(ctx context.Context, in CreateInput) (PointOfInterest, error) {
	fields, err := s.validateCreate(ctx, in)
	if err != nil {
		return PointOfInterest{}, lookupErr(err)
	}

	p := PointOfInterest{
		ID:          uuid.NewString(),
		TrailID:     in.TrailID,
		Description: fields.Description,
		IsActive:    *fields.IsActive,
		Coordinate:  fields.Coordinate(),
		CreatedBy:   &in.CreatedBy,
	}
	if in.Image != nil {
		rel, err := s.images.Store(p.TrailID, in.Image.Data, in.Image.Filename, storage.CategoryPOI)
		if err != nil {
			return PointOfInterest{}, err
		}
		p.Image = &rel
	}

	if err := Insert(ctx, s.db, &p); err != nil {
		if p.Image != nil {
			s.images.Remove(*p.Image)
		}
		s.log.Error("poi insert failed", zap.String("trail_id", p.TrailID), zap.Error(err))
		return PointOfInterest{}, apperr.Persistence(err)
	}

	s.events.Notify(ctx, events.Event{Kind: events.POICreated, TrailID: p.TrailID, ID: p.ID})
	return p, nil
}

// Update merges the editable fields onto the stored record. A replacement
// image is stored before the row is updated and the previous file is only
// removed once the update has succeeded.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (PointOfInterest, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return PointOfInterest{}, err
	}

	active, err := s.validateUpdate(ctx, current, in)
	if err != nil {
		return PointOfInterest{}, lookupErr(err)
	}

	next := current
	if in.Description != nil {
		next.Description = *in.Description
	}
	if active != nil {
		next.IsActive = *active
	}
	// A replacement that lands on the current path stays staged until the row
	// is updated; any other path is written first so the row never points at
	// a missing file.
	var pending *storage.Staged
	replaced := false
	if in.Image != nil {
		staged, err := s.images.Stage(current.TrailID, in.Image.Data, in.Image.Filename, storage.CategoryPOI)
		if err != nil {
			return PointOfInterest{}, err
		}
		if samePath(current.Image, &staged.Rel) {
			pending = staged
		} else {
			if err := staged.Commit(); err != nil {
				return PointOfInterest{}, err
			}
			replaced = true
		}
		next.Image = &staged.Rel
	}

	err = s.db.QueryRow(ctx, `
		UPDATE points_of_interest
		SET description=$2, image=$3, is_active=$4, updated_at=now()
		WHERE id=$1
		RETURNING updated_at
	`, next.ID, next.Description, next.Image, next.IsActive).Scan(&next.UpdatedAt)
	if err != nil {
		if pending != nil {
			pending.Discard()
		}
		if replaced {
			s.images.Remove(*next.Image)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return PointOfInterest{}, apperr.NotFound("point of interest", id)
		}
		s.log.Error("poi update failed", zap.String("poi_id", id), zap.Error(err))
		return PointOfInterest{}, apperr.Persistence(err)
	}

	if pending != nil {
		if err := pending.Commit(); err != nil {
			s.log.Error("poi image swap failed, previous image kept",
				zap.String("poi_id", id), zap.String("path", pending.Rel), zap.Error(err))
			return PointOfInterest{}, err
		}
	}
	if replaced && current.Image != nil {
		s.images.Remove(*current.Image)
	}
	s.events.Notify(ctx, events.Event{Kind: events.POIUpdated, TrailID: next.TrailID, ID: next.ID})
	return next, nil
}

func (s *Service) Get(ctx context.Context, id string) (PointOfInterest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return PointOfInterest{}, apperr.NotFound("point of interest", id)
	}
	p, err := scan(s.db.QueryRow(ctx, `SELECT `+columns+` FROM points_of_interest WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return PointOfInterest{}, apperr.NotFound("point of interest", id)
	}
	if err != nil {
		return PointOfInterest{}, apperr.Persistence(err)
	}
	return p, nil
}

func (s *Service) ListByTrail(ctx context.Context, trailID string) ([]PointOfInterest, error) {
	if _, err := uuid.Parse(trailID); err != nil {
		return nil, apperr.NotFound("trail", trailID)
	}
	ok, err := s.trailExists(ctx, trailID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	if !ok {
		return nil, apperr.NotFound("trail", trailID)
	}

	byTrail, err := ListByTrails(ctx, s.db, []string{trailID})
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	if byTrail[trailID] == nil {
		return []PointOfInterest{}, nil
	}
	return byTrail[trailID], nil
}

// Delete removes the record and then its image file.
func (s *Service) Delete(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM points_of_interest WHERE id=$1`, id)
	if err != nil {
		return apperr.Persistence(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("point of interest", id)
	}
	if current.Image != nil {
		s.images.Remove(*current.Image)
	}
	s.events.Notify(ctx, events.Event{Kind: events.POIDeleted, TrailID: current.TrailID, ID: id})
	return nil
}

// Nearby lists active points of interest within radiusMiles of c, closest
// first.
func (s *Service) Nearby(ctx context.Context, c geo.Coordinate, radiusMiles float64) ([]PointOfInterest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+columns+`
		FROM points_of_interest
		WHERE is_active
		  AND ST_DWithin(ST_SetSRID(ST_MakePoint(longitude, latitude), 4326)::geography,
		                 ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography, $3)
		ORDER BY ST_Distance(ST_SetSRID(ST_MakePoint(longitude, latitude), 4326)::geography,
		                     ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography)
	`, c.Longitude, c.Latitude, radiusMiles*metersPerMile)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	defer rows.Close()

	results := []PointOfInterest{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, apperr.Persistence(err)
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence(err)
	}
	return results, nil
}

func (s *Service) trailExists(ctx context.Context, trailID string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trails WHERE id=$1)`, trailID).Scan(&ok)
	return ok, err
}

// lookupErr passes validation failures through and marks everything else as
// a store failure raised while evaluating a rule.
func lookupErr(err error) error {
	if apperr.IsValidation(err) {
		return err
	}
	return apperr.Persistence(err)
}

func samePath(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
