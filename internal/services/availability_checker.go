package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tommusungu/MentaCareBack/internal/models"
)

type availabilityReader interface {
	GetByProfessionalID(ctx context.Context, professionalID int64) (models.WeeklyAvailability, error)
}

type professionalProfileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.ProfessionalProfile, error)
}

type slotReader interface {
	HasOpenSlot(ctx context.Context, professionalID int64, scheduledAt time.Time) (bool, error)
}

// AvailabilityChecker answers "can this professional be booked at this exact
// time": the candidate must fall on a declared weekly slot and no pending or
// confirmed appointment may already hold it. Lookup failures are reported as
// errors; callers treat them as not available.
type AvailabilityChecker struct {
	availabilityRepo availabilityReader
	professionalRepo professionalProfileReader
	appointmentRepo  slotReader
}

func NewAvailabilityChecker(
	availabilityRepo availabilityReader,
	professionalRepo professionalProfileReader,
	appointmentRepo slotReader,
) *AvailabilityChecker {
	return &AvailabilityChecker{
		availabilityRepo: availabilityRepo,
		professionalRepo: professionalRepo,
		appointmentRepo:  appointmentRepo,
	}
}

// WeeklyFor resolves the declared weekly map: the dedicated availability
// record wins, then the map embedded in the profile, then an all-empty week.
func (c *AvailabilityChecker) WeeklyFor(ctx context.Context, professionalID int64) (models.WeeklyAvailability, error) {
	weekly, err := c.availabilityRepo.GetByProfessionalID(ctx, professionalID)
	if err == nil {
		return weekly.Normalize(), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	profile, err := c.professionalRepo.GetByUserID(ctx, professionalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EmptyWeeklyAvailability(), nil
		}
		return nil, err
	}
	if profile.WeeklyAvailability != nil {
		return profile.WeeklyAvailability.Normalize(), nil
	}

	return models.EmptyWeeklyAvailability(), nil
}

func (c *AvailabilityChecker) IsAvailable(ctx context.Context, professionalID int64, at time.Time) (bool, error) {
	weekly, err := c.WeeklyFor(ctx, professionalID)
	if err != nil {
		return false, err
	}
	if !weekly.Contains(at) {
		return false, nil
	}

	taken, err := c.appointmentRepo.HasOpenSlot(ctx, professionalID, at.UTC())
	if err != nil {
		return false, err
	}
	return !taken, nil
}
