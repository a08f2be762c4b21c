package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tommusungu/MentaCareBack/internal/models"
	"github.com/tommusungu/MentaCareBack/internal/repository"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrSlotTaken              = errors.New("slot already booked")
	ErrSlotUnavailable        = errors.New("slot not in availability")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidInput           = errors.New("invalid input")
	ErrProfessionalNotFound   = errors.New("professional not found")
	ErrNotJoinable            = errors.New("appointment not joinable")
	ErrNotesRequired          = errors.New("session notes required")
)

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type slotAvailability interface {
	IsAvailable(ctx context.Context, professionalID int64, at time.Time) (bool, error)
}

type appointmentNotifier interface {
	SendBookingConfirmation(appointment *models.Appointment, patientEmail, professionalEmail string)
	SendAppointmentAccepted(appointment *models.Appointment, patientEmail string)
}

type AppointmentService struct {
	db              *pgxpool.Pool
	appointmentRepo *repository.AppointmentRepository
	callRepo        *repository.CallRepository
	userRepo        userReader
	availability    slotAvailability
	notifier        appointmentNotifier
}

func NewAppointmentService(
	db *pgxpool.Pool,
	appointmentRepo *repository.AppointmentRepository,
	callRepo *repository.CallRepository,
	userRepo userReader,
	availability slotAvailability,
	notifier appointmentNotifier,
) *AppointmentService {
	return &AppointmentService{
		db:              db,
		appointmentRepo: appointmentRepo,
		callRepo:        callRepo,
		userRepo:        userRepo,
		availability:    availability,
		notifier:        notifier,
	}
}

type BookAppointmentInput struct {
	ProfessionalID int64
	ScheduledAt    time.Time
	Reason         string
}

func (s *AppointmentService) BookAppointment(
	ctx context.Context,
	patientID int64,
	input BookAppointmentInput,
) (*models.Appointment, error) {
	input.Reason = strings.TrimSpace(input.Reason)
	if input.ProfessionalID <= 0 || input.Reason == "" {
		return nil, ErrInvalidInput
	}
	if input.ScheduledAt.Before(time.Now().Add(-1 * time.Minute)) {
		return nil, ErrInvalidInput
	}
	if patientID == input.ProfessionalID {
		return nil, ErrInvalidInput
	}

	professional, err := s.userRepo.GetByID(ctx, input.ProfessionalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}
	if professional.Role != "professional" {
		return nil, ErrInvalidInput
	}

	available, err := s.availability.IsAvailable(ctx, input.ProfessionalID, input.ScheduledAt)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrSlotUnavailable
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txAppointmentRepo := repository.NewAppointmentRepository(tx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", input.ProfessionalID); err != nil {
		return nil, err
	}

	taken, err := txAppointmentRepo.HasOpenSlot(ctx, input.ProfessionalID, input.ScheduledAt.UTC())
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}

	appointment, err := txAppointmentRepo.Create(ctx, repository.CreateAppointmentInput{
		PatientID:      patientID,
		ProfessionalID: input.ProfessionalID,
		ScheduledAt:    input.ScheduledAt.UTC(),
		Reason:         input.Reason,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifyBooked(ctx, appointment)

	return appointment, nil
}

func (s *AppointmentService) notifyBooked(ctx context.Context, appointment *models.Appointment) {
	if s.notifier == nil {
		return
	}
	patient, err := s.userRepo.GetByID(ctx, appointment.PatientID)
	if err != nil {
		return
	}
	professional, err := s.userRepo.GetByID(ctx, appointment.ProfessionalID)
	if err != nil {
		return
	}
	s.notifier.SendBookingConfirmation(appointment, patient.Email, professional.Email)
}

func (s *AppointmentService) CheckAvailability(
	ctx context.Context,
	professionalID int64,
	at time.Time,
) (bool, error) {
	if professionalID <= 0 {
		return false, ErrInvalidInput
	}
	return s.availability.IsAvailable(ctx, professionalID, at)
}

func (s *AppointmentService) ListAppointments(
	ctx context.Context,
	actorID int64,
	role string,
	filter repository.AppointmentListFilter,
) ([]models.AppointmentDetail, error) {
	appointments, err := s.appointmentRepo.List(ctx, repository.AppointmentListFilter{
		ActorID:   actorID,
		Role:      role,
		Status:    filter.Status,
		Timeframe: filter.Timeframe,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	details := make([]models.AppointmentDetail, 0, len(appointments))
	for _, appointment := range appointments {
		details = append(details, models.AppointmentDetail{
			Appointment: appointment,
			Joinable:    appointment.JoinableAt(now),
		})
	}
	return details, nil
}

func (s *AppointmentService) GetAppointment(
	ctx context.Context,
	actorID int64,
	role string,
	appointmentID int64,
) (*models.AppointmentDetail, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !canAccessAppointment(role, actorID, appointment) {
		return nil, ErrForbidden
	}
	return &models.AppointmentDetail{
		Appointment: *appointment,
		Joinable:    appointment.JoinableAt(time.Now().UTC()),
	}, nil
}

type UpdateAppointmentStatusInput struct {
	Status string
	Reason *string
	Notes  *models.SessionNotes
}

func (s *AppointmentService) UpdateStatus(
	ctx context.Context,
	actorID int64,
	role string,
	appointmentID int64,
	input UpdateAppointmentStatusInput,
) (*models.AppointmentDetail, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !canAccessAppointment(role, actorID, appointment) {
		return nil, ErrForbidden
	}

	nextStatus, err := normalizeRequestedStatus(input.Status)
	if err != nil {
		return nil, err
	}
	if err := validateStatusTransition(role, appointment, nextStatus); err != nil {
		return nil, err
	}

	var updated *models.Appointment
	switch nextStatus {
	case models.AppointmentCancelled:
		reason := ""
		if input.Reason != nil {
			reason = strings.TrimSpace(*input.Reason)
		}
		if reason == "" {
			return nil, ErrInvalidInput
		}
		updated, err = s.appointmentRepo.CancelIfCurrent(ctx, appointmentID, appointment.Status, reason)
	case models.AppointmentCompleted:
		if input.Notes == nil || !input.Notes.HasContent() {
			return nil, ErrNotesRequired
		}
		updated, err = s.appointmentRepo.CompleteIfCurrent(ctx, appointmentID, appointment.Status, *input.Notes)
	default:
		updated, err = s.appointmentRepo.UpdateStatusIfCurrent(ctx, appointmentID, appointment.Status, nextStatus)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if nextStatus == models.AppointmentConfirmed {
		s.notifyAccepted(ctx, updated)
	}

	return &models.AppointmentDetail{
		Appointment: *updated,
		Joinable:    updated.JoinableAt(time.Now().UTC()),
	}, nil
}

func (s *AppointmentService) notifyAccepted(ctx context.Context, appointment *models.Appointment) {
	if s.notifier == nil {
		return
	}
	patient, err := s.userRepo.GetByID(ctx, appointment.PatientID)
	if err != nil {
		return
	}
	s.notifier.SendAppointmentAccepted(appointment, patient.Email)
}

type JoinResult struct {
	Appointment models.AppointmentDetail `json:"appointment"`
	RoomID      string                   `json:"room_id"`
}

// JoinAppointment admits a participant into the session room. The first
// joiner moves a confirmed appointment to in_progress and opens the room; the
// second joiner reuses it.
func (s *AppointmentService) JoinAppointment(
	ctx context.Context,
	actorID int64,
	role string,
	appointmentID int64,
) (*JoinResult, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !canAccessAppointment(role, actorID, appointment) {
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	if !appointment.JoinableAt(now) {
		return nil, ErrNotJoinable
	}

	if appointment.Status == models.AppointmentConfirmed {
		updated, err := s.appointmentRepo.UpdateStatusIfCurrent(
			ctx, appointmentID, models.AppointmentConfirmed, models.AppointmentInProgress)
		switch {
		case err == nil:
			appointment = updated
		case errors.Is(err, pgx.ErrNoRows):
			// Other participant advanced it first.
			appointment, err = s.appointmentRepo.GetByID(ctx, appointmentID)
			if err != nil {
				return nil, err
			}
			if appointment.Status != models.AppointmentInProgress {
				return nil, ErrNotJoinable
			}
		default:
			return nil, err
		}
	}

	call, err := s.callRepo.GetLatestByAppointmentID(ctx, appointmentID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		call, err = s.callRepo.Create(ctx, appointmentID, uuid.NewString(), actorID)
		if err != nil {
			return nil, err
		}
	}

	return &JoinResult{
		Appointment: models.AppointmentDetail{
			Appointment: *appointment,
			Joinable:    true,
		},
		RoomID: call.RoomID,
	}, nil
}

func canAccessAppointment(role string, actorID int64, appointment *models.Appointment) bool {
	if role == "patient" {
		return appointment.PatientID == actorID
	}
	if role == "professional" {
		return appointment.ProfessionalID == actorID
	}
	return false
}

func normalizeRequestedStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "confirm", "confirmed", "accept", "accepted":
		return models.AppointmentConfirmed, nil
	case "complete", "completed":
		return models.AppointmentCompleted, nil
	case "cancel", "cancelled", "canceled":
		return models.AppointmentCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

func validateStatusTransition(
	role string,
	appointment *models.Appointment,
	nextStatus string,
) error {
	switch role {
	case "patient":
		if nextStatus != models.AppointmentCancelled {
			return ErrForbidden
		}
		if appointment.Status == models.AppointmentCompleted ||
			appointment.Status == models.AppointmentCancelled {
			return ErrInvalidStateTransition
		}
		return nil
	case "professional":
		switch nextStatus {
		case models.AppointmentConfirmed:
			if appointment.Status != models.AppointmentPending {
				return ErrInvalidStateTransition
			}
		case models.AppointmentCompleted:
			if appointment.Status != models.AppointmentConfirmed &&
				appointment.Status != models.AppointmentInProgress {
				return ErrInvalidStateTransition
			}
		case models.AppointmentCancelled:
			if appointment.Status == models.AppointmentCompleted ||
				appointment.Status == models.AppointmentCancelled {
				return ErrInvalidStateTransition
			}
		default:
			return ErrInvalidStatus
		}
		return nil
	default:
		return ErrForbidden
	}
}
