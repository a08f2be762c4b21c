package repository

import (
	"context"

	"github.com/tommusungu/MentaCareBack/internal/models"
)

type PatientProfileRepository struct {
	db DBTX
}

func NewPatientProfileRepository(db DBTX) *PatientProfileRepository {
	return &PatientProfileRepository{db: db}
}

func (r *PatientProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO patient_profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *PatientProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.PatientProfile, error) {
	query := `
		SELECT id, user_id, full_name, avatar_url, age, gender, concerns,
			   emergency_contact, onboarding_complete, created_at, updated_at
		FROM patient_profiles
		WHERE user_id = $1
	`
	var profile models.PatientProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Age,
		&profile.Gender,
		&profile.Concerns,
		&profile.EmergencyContact,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *PatientProfileRepository) UpdateOnboarding(ctx context.Context, userID int64, req PatientOnboardingInput) (*models.PatientProfile, error) {
	query := `
		UPDATE patient_profiles
		SET full_name = $1,
			age = $2,
			gender = $3,
			concerns = $4,
			emergency_contact = $5,
			onboarding_complete = TRUE,
			updated_at = NOW()
		WHERE user_id = $6
		RETURNING id, user_id, full_name, avatar_url, age, gender, concerns,
				  emergency_contact, onboarding_complete, created_at, updated_at
	`
	var profile models.PatientProfile
	err := r.db.QueryRow(ctx, query,
		req.FullName,
		req.Age,
		req.Gender,
		req.Concerns,
		req.EmergencyContact,
		userID,
	).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Age,
		&profile.Gender,
		&profile.Concerns,
		&profile.EmergencyContact,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *PatientProfileRepository) UpdatePartial(ctx context.Context, userID int64, req UpdatePatientProfileInput) (*models.PatientProfile, error) {
	query := `
		UPDATE patient_profiles
		SET full_name = COALESCE($1, full_name),
			avatar_url = COALESCE($2, avatar_url),
			age = COALESCE($3, age),
			gender = COALESCE($4, gender),
			concerns = COALESCE($5, concerns),
			emergency_contact = COALESCE($6, emergency_contact),
			updated_at = NOW()
		WHERE user_id = $7
		RETURNING id, user_id, full_name, avatar_url, age, gender, concerns,
				  emergency_contact, onboarding_complete, created_at, updated_at
	`
	var profile models.PatientProfile
	err := r.db.QueryRow(ctx, query,
		req.FullName,
		req.AvatarURL,
		req.Age,
		req.Gender,
		req.Concerns,
		req.EmergencyContact,
		userID,
	).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Age,
		&profile.Gender,
		&profile.Concerns,
		&profile.EmergencyContact,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

type PatientOnboardingInput struct {
	FullName         string
	Age              int
	Gender           string
	Concerns         []string
	EmergencyContact string
}

type UpdatePatientProfileInput struct {
	FullName         *string
	AvatarURL        *string
	Age              *int
	Gender           *string
	Concerns         *[]string
	EmergencyContact *string
}
