package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/tommusungu/MentaCareBack/internal/models"
	"github.com/tommusungu/MentaCareBack/internal/repository"
	"github.com/tommusungu/MentaCareBack/internal/services"
	"github.com/tommusungu/MentaCareBack/pkg/utils"
)

type AppointmentHandler struct {
	service   appointmentApplicationService
	jwtSecret string
}

type appointmentApplicationService interface {
	BookAppointment(ctx context.Context, patientID int64, input services.BookAppointmentInput) (*models.Appointment, error)
	ListAppointments(ctx context.Context, actorID int64, role string, filter repository.AppointmentListFilter) ([]models.AppointmentDetail, error)
	GetAppointment(ctx context.Context, actorID int64, role string, appointmentID int64) (*models.AppointmentDetail, error)
	UpdateStatus(ctx context.Context, actorID int64, role string, appointmentID int64, input services.UpdateAppointmentStatusInput) (*models.AppointmentDetail, error)
	JoinAppointment(ctx context.Context, actorID int64, role string, appointmentID int64) (*services.JoinResult, error)
	CheckAvailability(ctx context.Context, professionalID int64, at time.Time) (bool, error)
}

func NewAppointmentHandler(service *services.AppointmentService, jwtSecret string) *AppointmentHandler {
	return &AppointmentHandler{service: service, jwtSecret: jwtSecret}
}

type bookAppointmentRequest struct {
	ProfessionalID int64  `json:"professional_id"`
	ScheduledAt    string `json:"scheduled_at"`
	Reason         string `json:"reason"`
}

type updateAppointmentStatusRequest struct {
	Status string               `json:"status"`
	Reason *string              `json:"reason"`
	Notes  *models.SessionNotes `json:"notes"`
}

func (h *AppointmentHandler) BookAppointment(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "patient" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	patientID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req bookAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	scheduledAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_at must be a valid RFC3339 timestamp"})
	}
	if strings.TrimSpace(req.Reason) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reason must not be empty"})
	}

	appointment, err := h.service.BookAppointment(c.Context(), patientID, services.BookAppointmentInput{
		ProfessionalID: req.ProfessionalID,
		ScheduledAt:    scheduledAt,
		Reason:         req.Reason,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"appointment": appointment})
}

func (h *AppointmentHandler) ListAppointments(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "patient" && role != "professional") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	timeframe := strings.TrimSpace(c.Query("timeframe"))
	if timeframe != "" && timeframe != "upcoming" && timeframe != "past" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "timeframe must be upcoming or past"})
	}

	appointments, err := h.service.ListAppointments(c.Context(), userID, role, repository.AppointmentListFilter{
		Status:    strings.TrimSpace(c.Query("status")),
		Timeframe: timeframe,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return c.JSON(fiber.Map{"appointments": appointments})
}

func (h *AppointmentHandler) GetAppointment(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "patient" && role != "professional") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	appointmentID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || appointmentID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment id"})
	}

	appointment, err := h.service.GetAppointment(c.Context(), userID, role, appointmentID)
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return c.JSON(fiber.Map{"appointment": appointment})
}

func (h *AppointmentHandler) UpdateStatus(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "patient" && role != "professional") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	appointmentID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || appointmentID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment id"})
	}

	var req updateAppointmentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	appointment, err := h.service.UpdateStatus(c.Context(), userID, role, appointmentID, services.UpdateAppointmentStatusInput{
		Status: req.Status,
		Reason: req.Reason,
		Notes:  req.Notes,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return c.JSON(fiber.Map{"appointment": appointment})
}

func (h *AppointmentHandler) JoinAppointment(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "patient" && role != "professional") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	appointmentID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || appointmentID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment id"})
	}

	result, err := h.service.JoinAppointment(c.Context(), userID, role, appointmentID)
	if err != nil {
		return mapAppointmentError(c, err)
	}

	// Joining also hands out a short-lived chat token so the client can open
	// the in-session conversation socket without a second round trip.
	chatToken, err := utils.GenerateChatToken(strconv.FormatInt(userID, 10), role, h.jwtSecret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue chat token"})
	}

	return c.JSON(fiber.Map{
		"appointment": result.Appointment,
		"room_id":     result.RoomID,
		"chat_token":  chatToken,
	})
}

func (h *AppointmentHandler) CheckAvailability(c *fiber.Ctx) error {
	professionalID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || professionalID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid professional id"})
	}

	at, err := time.Parse(time.RFC3339, strings.TrimSpace(c.Query("at")))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "at must be a valid RFC3339 timestamp"})
	}

	available, err := h.service.CheckAvailability(c.Context(), professionalID, at)
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return c.JSON(fiber.Map{
		"professional_id": professionalID,
		"at":              at.UTC().Format(time.RFC3339),
		"available":       available,
	})
}

func mapAppointmentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrSlotTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Requested slot is already booked"})
	case errors.Is(err, services.ErrSlotUnavailable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Requested slot is not in the professional's availability"})
	case errors.Is(err, services.ErrInvalidStateTransition), errors.Is(err, services.ErrNotesRequired),
		errors.Is(err, services.ErrNotJoinable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrProfessionalNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Professional not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process appointment request"})
	}
}
