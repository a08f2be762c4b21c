package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/tommusungu/MentaCareBack/internal/models"
	"github.com/tommusungu/MentaCareBack/internal/repository"
	"github.com/tommusungu/MentaCareBack/internal/services"
)

type stubAppointmentService struct {
	bookResult        *models.Appointment
	bookErr           error
	listResult        []models.AppointmentDetail
	listErr           error
	getResult         *models.AppointmentDetail
	getErr            error
	updateResult      *models.AppointmentDetail
	updateErr         error
	joinResult        *services.JoinResult
	joinErr           error
	availableResult   bool
	availableErr      error
	lastPatientID     int64
	lastActorID       int64
	lastRole          string
	lastAppointmentID int64
	lastBookInput     services.BookAppointmentInput
	lastFilter        repository.AppointmentListFilter
	lastUpdateInput   services.UpdateAppointmentStatusInput
	lastCheckedAt     time.Time
}

func (s *stubAppointmentService) BookAppointment(_ context.Context, patientID int64, input services.BookAppointmentInput) (*models.Appointment, error) {
	s.lastPatientID = patientID
	s.lastBookInput = input
	return s.bookResult, s.bookErr
}

func (s *stubAppointmentService) ListAppointments(_ context.Context, actorID int64, role string, filter repository.AppointmentListFilter) ([]models.AppointmentDetail, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastFilter = filter
	return s.listResult, s.listErr
}

func (s *stubAppointmentService) GetAppointment(_ context.Context, actorID int64, role string, appointmentID int64) (*models.AppointmentDetail, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastAppointmentID = appointmentID
	return s.getResult, s.getErr
}

func (s *stubAppointmentService) UpdateStatus(_ context.Context, actorID int64, role string, appointmentID int64, input services.UpdateAppointmentStatusInput) (*models.AppointmentDetail, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastAppointmentID = appointmentID
	s.lastUpdateInput = input
	return s.updateResult, s.updateErr
}

func (s *stubAppointmentService) JoinAppointment(_ context.Context, actorID int64, role string, appointmentID int64) (*services.JoinResult, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastAppointmentID = appointmentID
	return s.joinResult, s.joinErr
}

func (s *stubAppointmentService) CheckAvailability(_ context.Context, professionalID int64, at time.Time) (bool, error) {
	s.lastActorID = professionalID
	s.lastCheckedAt = at
	return s.availableResult, s.availableErr
}

func newAppointmentTestApp(service *stubAppointmentService, role, userID string) *fiber.App {
	handler := &AppointmentHandler{service: service}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Post("/api/v1/appointments", handler.BookAppointment)
	app.Get("/api/v1/appointments", handler.ListAppointments)
	app.Get("/api/v1/appointments/:id", handler.GetAppointment)
	app.Put("/api/v1/appointments/:id/status", handler.UpdateStatus)
	app.Post("/api/v1/appointments/:id/join", handler.JoinAppointment)
	app.Get("/api/v1/professionals/:id/availability/check", handler.CheckAvailability)
	return app
}

func TestBookAppointmentReturnsCreatedAppointment(t *testing.T) {
	scheduledAt := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	service := &stubAppointmentService{
		bookResult: &models.Appointment{
			ID:             31,
			PatientID:      42,
			ProfessionalID: 7,
			ScheduledAt:    scheduledAt,
			Status:         models.AppointmentPending,
			Reason:         "Recurring anxiety",
		},
	}
	app := newAppointmentTestApp(service, "patient", "42")

	body := `{"professional_id":7,"scheduled_at":"2026-04-02T10:00:00Z","reason":"Recurring anxiety"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastPatientID != 42 {
		t.Fatalf("expected patient id 42, got %d", service.lastPatientID)
	}
	if !service.lastBookInput.ScheduledAt.Equal(scheduledAt) {
		t.Fatalf("unexpected forwarded scheduled_at: %v", service.lastBookInput.ScheduledAt)
	}

	var payload struct {
		Appointment models.Appointment `json:"appointment"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.Appointment.Status != models.AppointmentPending {
		t.Fatalf("expected pending appointment, got %q", payload.Appointment.Status)
	}
}

func TestBookAppointmentRejectsProfessionals(t *testing.T) {
	service := &stubAppointmentService{}
	app := newAppointmentTestApp(service, "professional", "7")

	body := `{"professional_id":7,"scheduled_at":"2026-04-02T10:00:00Z","reason":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestBookAppointmentMapsSlotConflict(t *testing.T) {
	service := &stubAppointmentService{bookErr: services.ErrSlotTaken}
	app := newAppointmentTestApp(service, "patient", "42")

	body := `{"professional_id":7,"scheduled_at":"2026-04-02T10:00:00Z","reason":"Recurring anxiety"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestBookAppointmentMapsUnavailableSlot(t *testing.T) {
	service := &stubAppointmentService{bookErr: services.ErrSlotUnavailable}
	app := newAppointmentTestApp(service, "patient", "42")

	body := `{"professional_id":7,"scheduled_at":"2026-04-02T10:00:00Z","reason":"Recurring anxiety"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestListAppointmentsRejectsUnknownTimeframe(t *testing.T) {
	service := &stubAppointmentService{}
	app := newAppointmentTestApp(service, "patient", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments?timeframe=someday", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListAppointmentsForwardsFilter(t *testing.T) {
	service := &stubAppointmentService{
		listResult: []models.AppointmentDetail{
			{Appointment: models.Appointment{ID: 31, Status: models.AppointmentConfirmed}},
		},
	}
	app := newAppointmentTestApp(service, "professional", "7")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments?timeframe=upcoming&status=confirmed", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastFilter.Timeframe != "upcoming" || service.lastFilter.Status != "confirmed" {
		t.Fatalf("unexpected forwarded filter: %+v", service.lastFilter)
	}
	if service.lastRole != "professional" {
		t.Fatalf("expected professional role, got %q", service.lastRole)
	}
}

func TestUpdateStatusForwardsNotes(t *testing.T) {
	service := &stubAppointmentService{
		updateResult: &models.AppointmentDetail{
			Appointment: models.Appointment{ID: 31, Status: models.AppointmentCompleted},
		},
	}
	app := newAppointmentTestApp(service, "professional", "7")

	body := `{"status":"completed","notes":{"subjective":"Reported better sleep","plan":"Weekly check-ins"}}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/appointments/31/status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastAppointmentID != 31 {
		t.Fatalf("expected appointment 31, got %d", service.lastAppointmentID)
	}
	if service.lastUpdateInput.Notes == nil || !service.lastUpdateInput.Notes.HasContent() {
		t.Fatalf("expected notes to be forwarded, got %+v", service.lastUpdateInput.Notes)
	}
}

func TestUpdateStatusMapsMissingNotes(t *testing.T) {
	service := &stubAppointmentService{updateErr: services.ErrNotesRequired}
	app := newAppointmentTestApp(service, "professional", "7")

	body := `{"status":"completed"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/appointments/31/status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestUpdateStatusMapsInvalidTransition(t *testing.T) {
	service := &stubAppointmentService{updateErr: services.ErrInvalidStateTransition}
	app := newAppointmentTestApp(service, "patient", "42")

	body := `{"status":"cancelled","reason":"Travel conflict"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/appointments/31/status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestJoinAppointmentReturnsRoom(t *testing.T) {
	service := &stubAppointmentService{
		joinResult: &services.JoinResult{
			Appointment: models.AppointmentDetail{
				Appointment: models.Appointment{ID: 31, Status: models.AppointmentInProgress},
				Joinable:    true,
			},
			RoomID: "room-abc",
		},
	}
	app := newAppointmentTestApp(service, "patient", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/31/join", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload services.JoinResult
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.RoomID != "room-abc" {
		t.Fatalf("expected room-abc, got %q", payload.RoomID)
	}
	if payload.Appointment.Status != models.AppointmentInProgress {
		t.Fatalf("expected in_progress, got %q", payload.Appointment.Status)
	}
}

func TestJoinAppointmentMapsOutsideWindow(t *testing.T) {
	service := &stubAppointmentService{joinErr: services.ErrNotJoinable}
	app := newAppointmentTestApp(service, "patient", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/31/join", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestGetAppointmentReturnsNotFound(t *testing.T) {
	service := &stubAppointmentService{getErr: pgx.ErrNoRows}
	app := newAppointmentTestApp(service, "patient", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/404", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCheckAvailabilityReturnsVerdict(t *testing.T) {
	service := &stubAppointmentService{availableResult: true}
	app := newAppointmentTestApp(service, "patient", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/professionals/7/availability/check?at=2026-04-02T10:00:00Z", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload struct {
		ProfessionalID int64  `json:"professional_id"`
		At             string `json:"at"`
		Available      bool   `json:"available"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.ProfessionalID != 7 || !payload.Available {
		t.Fatalf("unexpected verdict: %+v", payload)
	}
}

func TestCheckAvailabilityRequiresTimestamp(t *testing.T) {
	service := &stubAppointmentService{}
	app := newAppointmentTestApp(service, "patient", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/professionals/7/availability/check", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
