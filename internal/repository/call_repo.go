package repository

import (
	"context"

	"github.com/tommusungu/MentaCareBack/internal/models"
)

type CallRepository struct {
	db DBTX
}

func NewCallRepository(db DBTX) *CallRepository {
	return &CallRepository{db: db}
}

func (r *CallRepository) Create(ctx context.Context, appointmentID int64, roomID string, startedBy int64) (*models.Call, error) {
	query := `
		INSERT INTO calls (appointment_id, room_id, started_by)
		VALUES ($1, $2, $3)
		RETURNING id, appointment_id, room_id, started_by, started_at
	`
	var call models.Call
	err := r.db.QueryRow(ctx, query, appointmentID, roomID, startedBy).Scan(
		&call.ID,
		&call.AppointmentID,
		&call.RoomID,
		&call.StartedBy,
		&call.StartedAt,
	)
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// GetLatestByAppointmentID returns the newest call room for an appointment so a
// second joiner lands in the same room instead of opening a new one.
func (r *CallRepository) GetLatestByAppointmentID(ctx context.Context, appointmentID int64) (*models.Call, error) {
	query := `
		SELECT id, appointment_id, room_id, started_by, started_at
		FROM calls
		WHERE appointment_id = $1
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`
	var call models.Call
	err := r.db.QueryRow(ctx, query, appointmentID).Scan(
		&call.ID,
		&call.AppointmentID,
		&call.RoomID,
		&call.StartedBy,
		&call.StartedAt,
	)
	if err != nil {
		return nil, err
	}
	return &call, nil
}
