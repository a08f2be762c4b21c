package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/tommusungu/MentaCareBack/internal/models"
	"github.com/tommusungu/MentaCareBack/internal/repository"
	"github.com/tommusungu/MentaCareBack/internal/services"
)

type professionalDiscoveryRepository interface {
	List(ctx context.Context, filter repository.ProfessionalListFilter) ([]models.ProfessionalProfile, int, error)
	GetByUserID(ctx context.Context, userID int64) (*models.ProfessionalProfile, error)
}

type patientDiscoveryRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.PatientProfile, error)
}

type professionalMatchmaker interface {
	GetMatchedProfessionals(ctx context.Context, patientProfile *models.PatientProfile, limit int) ([]models.ProfessionalWithScore, error)
}

type weeklyAvailabilityResolver interface {
	WeeklyFor(ctx context.Context, professionalID int64) (models.WeeklyAvailability, error)
}

type ProfessionalDiscoveryHandler struct {
	professionalRepo   professionalDiscoveryRepository
	patientProfileRepo patientDiscoveryRepository
	matchmakingService professionalMatchmaker
	availability       weeklyAvailabilityResolver
}

func NewProfessionalDiscoveryHandler(
	professionalRepo professionalDiscoveryRepository,
	patientProfileRepo patientDiscoveryRepository,
	matchmakingService professionalMatchmaker,
	availability weeklyAvailabilityResolver,
) *ProfessionalDiscoveryHandler {
	return &ProfessionalDiscoveryHandler{
		professionalRepo:   professionalRepo,
		patientProfileRepo: patientProfileRepo,
		matchmakingService: matchmakingService,
		availability:       availability,
	}
}

func (h *ProfessionalDiscoveryHandler) ListProfessionals(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	minRating, err := parseNonNegativeFloat(c.Query("min_rating"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "min_rating must be a valid non-negative number"})
	}
	experience, err := parseNonNegativeInt(c.Query("experience"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "experience must be a valid non-negative integer"})
	}

	professionals, total, err := h.professionalRepo.List(c.Context(), repository.ProfessionalListFilter{
		Specialization: strings.TrimSpace(c.Query("specialization")),
		MinRating:      minRating,
		Experience:     experience,
		Offset:         (page - 1) * limit,
		Limit:          limit,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch professionals"})
	}

	response := make([]models.ProfessionalListResponse, 0, len(professionals))
	for _, professional := range professionals {
		response = append(response, buildProfessionalListResponse(professional, 0))
	}

	return c.JSON(fiber.Map{
		"professionals": response,
		"pagination":    buildPaginationMeta(page, limit, total),
	})
}

func (h *ProfessionalDiscoveryHandler) GetRecommendedProfessionals(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "patient" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	patientProfile, err := h.patientProfileRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch patient profile"})
	}

	professionals, err := h.matchmakingService.GetMatchedProfessionals(c.Context(), patientProfile, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch recommended professionals"})
	}

	response := make([]models.ProfessionalListResponse, 0, len(professionals))
	for _, professional := range professionals {
		response = append(response, buildProfessionalListResponse(professional.ProfessionalProfile, professional.MatchScore))
	}

	return c.JSON(fiber.Map{"professionals": response})
}

func (h *ProfessionalDiscoveryHandler) GetProfessionalDetail(c *fiber.Ctx) error {
	professionalID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || professionalID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid professional id"})
	}

	professional, err := h.professionalRepo.GetByUserID(c.Context(), professionalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Professional not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch professional"})
	}

	return c.JSON(fiber.Map{
		"professional": buildProfessionalDetailResponse(*professional),
	})
}

// GetWeeklyAvailability exposes the declared weekly schedule, keyed by
// lowercase weekday with "HH:mm" slot starts.
func (h *ProfessionalDiscoveryHandler) GetWeeklyAvailability(c *fiber.Ctx) error {
	professionalID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || professionalID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid professional id"})
	}

	weekly, err := h.availability.WeeklyFor(c.Context(), professionalID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch availability"})
	}

	return c.JSON(fiber.Map{
		"professional_id": professionalID,
		"weekly":          weekly,
	})
}

func buildProfessionalListResponse(professional models.ProfessionalProfile, matchScore int) models.ProfessionalListResponse {
	response := models.ProfessionalListResponse{
		ID:              strconv.FormatInt(professional.UserID, 10),
		FullName:        stringValue(professional.FullName),
		AvatarURL:       stringValue(professional.AvatarURL),
		Specializations: stringSliceValue(professional.Specializations),
		ExperienceYears: intValueResponse(professional.ExperienceYears),
		Rating:          floatValueResponse(professional.Rating),
		TotalReviews:    professional.TotalReviews,
	}
	if matchScore > 0 {
		response.MatchScore = matchScore
	}
	return response
}

func buildProfessionalDetailResponse(professional models.ProfessionalProfile) models.ProfessionalDetailResponse {
	return models.ProfessionalDetailResponse{
		ProfessionalListResponse: buildProfessionalListResponse(professional, 0),
		Bio:                      stringValue(professional.Bio),
		Credentials:              stringSliceValue(professional.Credentials),
		IsVerified:               boolValue(professional.IsVerified),
		OnboardingComplete:       professional.OnboardingComplete,
	}
}

func parseNonNegativeInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errInvalidNumber
	}
	return value, nil
}

func parseNonNegativeFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, errInvalidNumber
	}
	return value, nil
}

var errInvalidNumber = errors.New("invalid number")

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func stringSliceValue(value *[]string) []string {
	if value == nil {
		return []string{}
	}
	return *value
}

func floatValueResponse(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}

func intValueResponse(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}

func boolValue(value *bool) bool {
	if value == nil {
		return false
	}
	return *value
}

var _ services.ProfessionalMatcher = (*repository.ProfessionalProfileRepository)(nil)
