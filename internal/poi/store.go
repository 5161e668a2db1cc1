package poi

import (
	"context"

	"backend-trailhub/internal/db"

	"github.com/jackc/pgx/v5"
)

const columns = `id, trail_id, description, image, is_active, latitude, longitude,
	accuracy, altitude, altitude_accuracy, heading, speed, created_by, created_at, updated_at`

// Insert writes p and fills in its timestamps. q may be a transaction.
func Insert(ctx context.Context, q db.Querier, p *PointOfInterest) error {
	row := q.QueryRow(ctx, `
		INSERT INTO points_of_interest (id, trail_id, description, image, is_active, latitude, longitude,
			accuracy, altitude, altitude_accuracy, heading, speed, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at
	`, p.ID, p.TrailID, p.Description, p.Image, p.IsActive, p.Latitude, p.Longitude,
		p.Accuracy, p.Altitude, p.AltitudeAccuracy, p.Heading, p.Speed, p.CreatedBy)
	return row.Scan(&p.CreatedAt, &p.UpdatedAt)
}

// ListByTrails loads the points of interest of every trail in trailIDs,
// grouped by trail id.
func ListByTrails(ctx context.Context, q db.Querier, trailIDs []string) (map[string][]PointOfInterest, error) {
	result := make(map[string][]PointOfInterest, len(trailIDs))
	if len(trailIDs) == 0 {
		return result, nil
	}

	rows, err := q.Query(ctx, `
		SELECT `+columns+`
		FROM points_of_interest
		WHERE trail_id = ANY($1)
		ORDER BY trail_id, created_at, id
	`, trailIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result[p.TrailID] = append(result[p.TrailID], p)
	}
	return result, rows.Err()
}

func scan(row pgx.Row) (PointOfInterest, error) {
	var p PointOfInterest
	err := row.Scan(&p.ID, &p.TrailID, &p.Description, &p.Image, &p.IsActive, &p.Latitude, &p.Longitude,
		&p.Accuracy, &p.Altitude, &p.AltitudeAccuracy, &p.Heading, &p.Speed, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
