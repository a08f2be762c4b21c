package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tommusungu/MentaCareBack/internal/models"
)

type AppointmentRepository struct {
	db DBTX
}

func NewAppointmentRepository(db DBTX) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentColumns = `id, patient_id, professional_id, scheduled_at, status, reason,
		cancellation_reason, cancelled_at, note_subjective, note_objective,
		note_assessment, note_plan, created_at, updated_at`

type CreateAppointmentInput struct {
	PatientID      int64
	ProfessionalID int64
	ScheduledAt    time.Time
	Reason         string
}

// Create inserts a pending appointment. The partial unique index on
// (professional_id, scheduled_at) for open statuses makes a lost booking race
// fail here with a unique violation instead of double-booking.
func (r *AppointmentRepository) Create(ctx context.Context, input CreateAppointmentInput) (*models.Appointment, error) {
	query := fmt.Sprintf(`
		INSERT INTO appointments (patient_id, professional_id, scheduled_at, status, reason)
		VALUES ($1, $2, $3, 'pending', $4)
		RETURNING %s
	`, appointmentColumns)

	return scanAppointment(r.db.QueryRow(ctx, query,
		input.PatientID,
		input.ProfessionalID,
		input.ScheduledAt,
		input.Reason,
	))
}

func (r *AppointmentRepository) GetByID(ctx context.Context, appointmentID int64) (*models.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM appointments
		WHERE id = $1
	`, appointmentColumns)
	return scanAppointment(r.db.QueryRow(ctx, query, appointmentID))
}

func (r *AppointmentRepository) GetByIDForUpdate(ctx context.Context, appointmentID int64) (*models.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, appointmentColumns)
	return scanAppointment(r.db.QueryRow(ctx, query, appointmentID))
}

type AppointmentListFilter struct {
	ActorID   int64
	Role      string
	Status    string
	Timeframe string
}

func (r *AppointmentRepository) List(ctx context.Context, filter AppointmentListFilter) ([]models.Appointment, error) {
	actorColumn := "patient_id"
	if filter.Role == "professional" {
		actorColumn = "professional_id"
	}

	args := []any{filter.ActorID}
	whereParts := []string{fmt.Sprintf("%s = $1", actorColumn)}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(whereParts, "scheduled_at > NOW()")
	case "past":
		whereParts = append(whereParts, "scheduled_at <= NOW()")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM appointments
		WHERE %s
		ORDER BY scheduled_at ASC, id ASC
	`, appointmentColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]models.Appointment, 0)
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, *appointment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return appointments, nil
}

func (r *AppointmentRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	appointmentID int64,
	currentStatus string,
	nextStatus string,
) (*models.Appointment, error) {
	query := fmt.Sprintf(`
		UPDATE appointments
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, appointmentColumns)
	return scanAppointment(r.db.QueryRow(ctx, query, appointmentID, currentStatus, nextStatus))
}

func (r *AppointmentRepository) CancelIfCurrent(
	ctx context.Context,
	appointmentID int64,
	currentStatus string,
	reason string,
) (*models.Appointment, error) {
	query := fmt.Sprintf(`
		UPDATE appointments
		SET status = 'cancelled',
			cancellation_reason = $3,
			cancelled_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, appointmentColumns)
	return scanAppointment(r.db.QueryRow(ctx, query, appointmentID, currentStatus, reason))
}

func (r *AppointmentRepository) CompleteIfCurrent(
	ctx context.Context,
	appointmentID int64,
	currentStatus string,
	notes models.SessionNotes,
) (*models.Appointment, error) {
	query := fmt.Sprintf(`
		UPDATE appointments
		SET status = 'completed',
			note_subjective = $3,
			note_objective = $4,
			note_assessment = $5,
			note_plan = $6,
			updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, appointmentColumns)
	return scanAppointment(r.db.QueryRow(ctx, query,
		appointmentID,
		currentStatus,
		notes.Subjective,
		notes.Objective,
		notes.Assessment,
		notes.Plan,
	))
}

// HasOpenSlot reports whether a non-terminal appointment already occupies the
// exact professional+timestamp slot. A session that has moved to in_progress
// still holds it; only completed and cancelled release the slot.
func (r *AppointmentRepository) HasOpenSlot(
	ctx context.Context,
	professionalID int64,
	scheduledAt time.Time,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE professional_id = $1
			  AND scheduled_at = $2
			  AND status IN ('pending', 'confirmed', 'in_progress')
		)
	`
	var taken bool
	if err := r.db.QueryRow(ctx, query, professionalID, scheduledAt).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	var appointment models.Appointment
	var notes models.SessionNotes
	if err := row.Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.ProfessionalID,
		&appointment.ScheduledAt,
		&appointment.Status,
		&appointment.Reason,
		&appointment.CancellationReason,
		&appointment.CancelledAt,
		&notes.Subjective,
		&notes.Objective,
		&notes.Assessment,
		&notes.Plan,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if notes.HasContent() {
		appointment.Notes = &notes
	}

	return &appointment, nil
}
