package trail

import (
	"context"
	"errors"
	"fmt"

	"backend-trailhub/internal/db"
	"backend-trailhub/internal/poi"
	"backend-trailhub/internal/shared/apperr"
	"backend-trailhub/internal/shared/geo"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb/encoding/wkt"
)

// Store persists trails. Create and Update write the trail, its coordinates
// and (for Create) its points of interest atomically.
type Store interface {
	Create(ctx context.Context, t *Trail) error
	FindByID(ctx context.Context, id string) (Trail, error)
	Update(ctx context.Context, t *Trail, replaceCoords bool) error
	ListAll(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	NameTaken(ctx context.Context, name, excludeID string) (bool, error)
}

var coordColumns = []string{"trail_id", "seq", "latitude", "longitude", "accuracy", "altitude", "altitude_accuracy", "heading", "speed"}

const summaryColumns = `id, name, description, difficulty, is_closed, created_by, updated_by, distance, created_at, updated_at`

type PGStore struct {
	db db.Querier
}

func NewPGStore(q db.Querier) *PGStore {
	return &PGStore{db: q}
}

func (s *PGStore) Create(ctx context.Context, t *Trail) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO trails (id, name, description, difficulty, is_closed, created_by, distance, route)
		VALUES ($1,$2,$3,$4,$5,$6,$7, ST_GeogFromText($8))
		RETURNING created_at, updated_at
	`, t.ID, t.Name, t.Description, t.Difficulty, t.IsClosed, t.CreatedBy, t.Distance, routeWKT(t.Coordinates))
	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := copyCoords(ctx, tx, t.ID, t.Coordinates); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	for i := range t.PointsOfInterest {
		if err := poi.Insert(ctx, tx, &t.PointsOfInterest[i]); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("insert point of interest %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PGStore) FindByID(ctx context.Context, id string) (Trail, error) {
	var t Trail
	err := scanSummary(s.db.QueryRow(ctx, `SELECT `+summaryColumns+` FROM trails WHERE id=$1`, id), &t.Summary)
	if errors.Is(err, pgx.ErrNoRows) {
		return Trail{}, apperr.NotFound("trail", id)
	}
	if err != nil {
		return Trail{}, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT latitude, longitude, accuracy, altitude, altitude_accuracy, heading, speed
		FROM trail_coords WHERE trail_id=$1
		ORDER BY seq
	`, id)
	if err != nil {
		return Trail{}, err
	}
	defer rows.Close()

	t.Coordinates = []geo.Coordinate{}
	for rows.Next() {
		var c geo.Coordinate
		if err := rows.Scan(&c.Latitude, &c.Longitude, &c.Accuracy, &c.Altitude, &c.AltitudeAccuracy, &c.Heading, &c.Speed); err != nil {
			return Trail{}, err
		}
		t.Coordinates = append(t.Coordinates, c)
	}
	if err := rows.Err(); err != nil {
		return Trail{}, err
	}

	pois, err := poi.ListByTrails(ctx, s.db, []string{id})
	if err != nil {
		return Trail{}, err
	}
	t.PointsOfInterest = pois[id]
	if t.PointsOfInterest == nil {
		t.PointsOfInterest = []poi.PointOfInterest{}
	}
	return t, nil
}

func (s *PGStore) Update(ctx context.Context, t *Trail, replaceCoords bool) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		UPDATE trails
		SET name=$2, description=$3, difficulty=$4, is_closed=$5, updated_by=$6,
		    distance=$7, route=ST_GeogFromText($8), updated_at=now()
		WHERE id=$1
		RETURNING updated_at
	`, t.ID, t.Name, t.Description, t.Difficulty, t.IsClosed, t.UpdatedBy, t.Distance, routeWKT(t.Coordinates)).Scan(&t.UpdatedAt)
	if err != nil {
		_ = tx.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("trail", t.ID)
		}
		return err
	}

	if replaceCoords {
		if _, err := tx.Exec(ctx, `DELETE FROM trail_coords WHERE trail_id=$1`, t.ID); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if err := copyCoords(ctx, tx, t.ID, t.Coordinates); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PGStore) ListAll(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.Query(ctx, `SELECT `+summaryColumns+` FROM trails ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trails := []Summary{}
	for rows.Next() {
		var t Summary
		if err := scanSummary(rows, &t); err != nil {
			return nil, err
		}
		trails = append(trails, t)
	}
	return trails, rows.Err()
}

// Delete removes the trail; coordinates and points of interest go with it
// through ON DELETE CASCADE.
func (s *PGStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM trails WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("trail", id)
	}
	return nil
}

func (s *PGStore) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	var taken bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM trails WHERE name = $1 AND id::text <> $2)
	`, name, excludeID).Scan(&taken)
	return taken, err
}

func copyCoords(ctx context.Context, tx pgx.Tx, trailID string, coords []geo.Coordinate) error {
	n, err := tx.CopyFrom(ctx, pgx.Identifier{"trail_coords"}, coordColumns,
		pgx.CopyFromSlice(len(coords), func(i int) ([]any, error) {
			c := coords[i]
			return []any{trailID, i, c.Latitude, c.Longitude, c.Accuracy, c.Altitude, c.AltitudeAccuracy, c.Heading, c.Speed}, nil
		}))
	if err != nil {
		return fmt.Errorf("copy coordinates: %w", err)
	}
	if int(n) != len(coords) {
		return fmt.Errorf("copy coordinates: wrote %d of %d rows", n, len(coords))
	}
	return nil
}

func scanSummary(row pgx.Row, t *Summary) error {
	return row.Scan(&t.ID, &t.Name, &t.Description, &t.Difficulty, &t.IsClosed, &t.CreatedBy, &t.UpdatedBy, &t.Distance, &t.CreatedAt, &t.UpdatedAt)
}

// routeWKT encodes the coordinates as a WKT LINESTRING, or nil when there are
// too few points to form one.
func routeWKT(coords []geo.Coordinate) *string {
	if len(coords) < 2 {
		return nil
	}
	s := wkt.MarshalString(geo.LineString(coords))
	return &s
}
