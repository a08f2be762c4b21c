package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/tommusungu/MentaCareBack/internal/models"
)

type ProfessionalProfileRepository struct {
	db DBTX
}

func NewProfessionalProfileRepository(db DBTX) *ProfessionalProfileRepository {
	return &ProfessionalProfileRepository{db: db}
}

const professionalProfileColumns = `id, user_id, full_name, avatar_url, bio, specializations, credentials,
		   experience_years, rating, total_reviews, is_verified, weekly_availability,
		   onboarding_complete, created_at, updated_at`

func (r *ProfessionalProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO professional_profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *ProfessionalProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.ProfessionalProfile, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM professional_profiles
		WHERE user_id = $1
	`, professionalProfileColumns)

	return r.scanOne(r.db.QueryRow(ctx, query, userID))
}

func (r *ProfessionalProfileRepository) UpdateOnboarding(ctx context.Context, userID int64, req ProfessionalOnboardingInput) (*models.ProfessionalProfile, error) {
	query := fmt.Sprintf(`
		UPDATE professional_profiles
		SET full_name = $1,
			bio = $2,
			specializations = $3,
			credentials = $4,
			experience_years = $5,
			weekly_availability = $6,
			onboarding_complete = TRUE,
			updated_at = NOW()
		WHERE user_id = $7
		RETURNING %s
	`, professionalProfileColumns)

	return r.scanOne(r.db.QueryRow(ctx, query,
		req.FullName,
		req.Bio,
		req.Specializations,
		req.Credentials,
		req.ExperienceYears,
		req.WeeklyAvailability,
		userID,
	))
}

func (r *ProfessionalProfileRepository) UpdatePartial(ctx context.Context, userID int64, req UpdateProfessionalProfileInput) (*models.ProfessionalProfile, error) {
	query := fmt.Sprintf(`
		UPDATE professional_profiles
		SET full_name = COALESCE($1, full_name),
			avatar_url = COALESCE($2, avatar_url),
			bio = COALESCE($3, bio),
			specializations = COALESCE($4, specializations),
			credentials = COALESCE($5, credentials),
			experience_years = COALESCE($6, experience_years),
			weekly_availability = COALESCE($7, weekly_availability),
			updated_at = NOW()
		WHERE user_id = $8
		RETURNING %s
	`, professionalProfileColumns)

	return r.scanOne(r.db.QueryRow(ctx, query,
		req.FullName,
		req.AvatarURL,
		req.Bio,
		req.Specializations,
		req.Credentials,
		req.ExperienceYears,
		req.WeeklyAvailability,
		userID,
	))
}

type ProfessionalListFilter struct {
	Specialization string
	MinRating      float64
	Experience     int
	Offset         int
	Limit          int
}

// List searches professionals server-side. The source app loaded the entire
// user collection and filtered in memory; the filter moves into SQL here.
func (r *ProfessionalProfileRepository) List(ctx context.Context, filter ProfessionalListFilter) ([]models.ProfessionalProfile, int, error) {
	args := []any{}
	whereParts := []string{"onboarding_complete = TRUE"}

	if spec := strings.TrimSpace(filter.Specialization); spec != "" {
		args = append(args, spec)
		whereParts = append(whereParts, fmt.Sprintf("$%d = ANY(specializations)", len(args)))
	}
	if filter.MinRating > 0 {
		args = append(args, filter.MinRating)
		whereParts = append(whereParts, fmt.Sprintf("COALESCE(rating, 0) >= $%d", len(args)))
	}
	if filter.Experience > 0 {
		args = append(args, filter.Experience)
		whereParts = append(whereParts, fmt.Sprintf("COALESCE(experience_years, 0) >= $%d", len(args)))
	}

	where := strings.Join(whereParts, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM professional_profiles WHERE %s`, where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM professional_profiles
		WHERE %s
		ORDER BY COALESCE(rating, 0) DESC, id ASC
		LIMIT $%d OFFSET $%d
	`, professionalProfileColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	profiles := make([]models.ProfessionalProfile, 0)
	for rows.Next() {
		profile, err := r.scanOne(rows)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

func (r *ProfessionalProfileRepository) ListAll(ctx context.Context) ([]models.ProfessionalProfile, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM professional_profiles
		WHERE onboarding_complete = TRUE
		ORDER BY id ASC
	`, professionalProfileColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.ProfessionalProfile, 0)
	for rows.Next() {
		profile, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ProfessionalProfileRepository) scanOne(row rowScanner) (*models.ProfessionalProfile, error) {
	var profile models.ProfessionalProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.Specializations,
		&profile.Credentials,
		&profile.ExperienceYears,
		&profile.Rating,
		&profile.TotalReviews,
		&profile.IsVerified,
		&profile.WeeklyAvailability,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

type ProfessionalOnboardingInput struct {
	FullName           string
	Bio                string
	Specializations    []string
	Credentials        []string
	ExperienceYears    int
	WeeklyAvailability models.WeeklyAvailability
}

type UpdateProfessionalProfileInput struct {
	FullName           *string
	AvatarURL          *string
	Bio                *string
	Specializations    *[]string
	Credentials        *[]string
	ExperienceYears    *int
	WeeklyAvailability *models.WeeklyAvailability
}
