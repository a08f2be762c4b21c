package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/tommusungu/MentaCareBack/internal/models"
	"github.com/tommusungu/MentaCareBack/internal/repository"
)

type patientOnboardingProfileStore interface {
	UpdateOnboarding(ctx context.Context, userID int64, req repository.PatientOnboardingInput) (*models.PatientProfile, error)
}

type professionalOnboardingProfileStore interface {
	UpdateOnboarding(ctx context.Context, userID int64, req repository.ProfessionalOnboardingInput) (*models.ProfessionalProfile, error)
}

type availabilityUpsertStore interface {
	Upsert(ctx context.Context, professionalID int64, weekly models.WeeklyAvailability) (models.WeeklyAvailability, error)
}

type OnboardingHandler struct {
	patientProfileRepo      patientOnboardingProfileStore
	professionalProfileRepo professionalOnboardingProfileStore
	availabilityRepo        availabilityUpsertStore
}

func NewOnboardingHandler(
	patientProfileRepo patientOnboardingProfileStore,
	professionalProfileRepo professionalOnboardingProfileStore,
	availabilityRepo availabilityUpsertStore,
) *OnboardingHandler {
	return &OnboardingHandler{
		patientProfileRepo:      patientProfileRepo,
		professionalProfileRepo: professionalProfileRepo,
		availabilityRepo:        availabilityRepo,
	}
}

type patientOnboardingRequest struct {
	FullName         string   `json:"full_name"`
	Age              int      `json:"age"`
	Gender           string   `json:"gender"`
	Concerns         []string `json:"concerns"`
	EmergencyContact string   `json:"emergency_contact"`
}

type professionalOnboardingRequest struct {
	FullName           string                    `json:"full_name"`
	Bio                string                    `json:"bio"`
	Specializations    []string                  `json:"specializations"`
	Credentials        []string                  `json:"credentials"`
	ExperienceYears    int                       `json:"experience_years"`
	WeeklyAvailability models.WeeklyAvailability `json:"weekly_availability"`
}

func (h *OnboardingHandler) PatientOnboarding(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "patient" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req patientOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validatePatientOnboardingRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.patientProfileRepo.UpdateOnboarding(c.Context(), userID, repository.PatientOnboardingInput{
		FullName:         req.FullName,
		Age:              req.Age,
		Gender:           req.Gender,
		Concerns:         req.Concerns,
		EmergencyContact: req.EmergencyContact,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *OnboardingHandler) ProfessionalOnboarding(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "professional" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req professionalOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateProfessionalOnboardingRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.professionalProfileRepo.UpdateOnboarding(c.Context(), userID, repository.ProfessionalOnboardingInput{
		FullName:           req.FullName,
		Bio:                req.Bio,
		Specializations:    req.Specializations,
		Credentials:        req.Credentials,
		ExperienceYears:    req.ExperienceYears,
		WeeklyAvailability: req.WeeklyAvailability.Normalize(),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

type updateAvailabilityRequest struct {
	WeeklyAvailability models.WeeklyAvailability `json:"weekly_availability"`
}

// UpdateAvailability replaces the professional's dedicated weekly schedule.
// The dedicated record takes precedence over the schedule embedded in the
// profile when slots are checked.
func (h *OnboardingHandler) UpdateAvailability(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "professional" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.WeeklyAvailability == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "weekly_availability is required"})
	}
	if validationErr := validateWeeklyAvailability(req.WeeklyAvailability); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	weekly, err := h.availabilityRepo.Upsert(c.Context(), userID, req.WeeklyAvailability.Normalize())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update availability"})
	}

	return c.JSON(fiber.Map{"weekly_availability": weekly})
}

func parseUserID(c *fiber.Ctx) (int64, error) {
	userIDValue := c.Locals("user_id")
	userIDStr, ok := userIDValue.(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}
