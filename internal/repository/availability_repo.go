package repository

import (
	"context"

	"github.com/tommusungu/MentaCareBack/internal/models"
)

// AvailabilityRepository stores the dedicated weekly availability record. A
// professional without one falls back to the map embedded in their profile.
type AvailabilityRepository struct {
	db DBTX
}

func NewAvailabilityRepository(db DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) GetByProfessionalID(ctx context.Context, professionalID int64) (models.WeeklyAvailability, error) {
	query := `
		SELECT weekly
		FROM availability
		WHERE professional_id = $1
	`
	var weekly models.WeeklyAvailability
	if err := r.db.QueryRow(ctx, query, professionalID).Scan(&weekly); err != nil {
		return nil, err
	}
	return weekly, nil
}

func (r *AvailabilityRepository) Upsert(ctx context.Context, professionalID int64, weekly models.WeeklyAvailability) (models.WeeklyAvailability, error) {
	query := `
		INSERT INTO availability (professional_id, weekly)
		VALUES ($1, $2)
		ON CONFLICT (professional_id)
		DO UPDATE SET weekly = EXCLUDED.weekly, updated_at = NOW()
		RETURNING weekly
	`
	var stored models.WeeklyAvailability
	if err := r.db.QueryRow(ctx, query, professionalID, weekly).Scan(&stored); err != nil {
		return nil, err
	}
	return stored, nil
}
