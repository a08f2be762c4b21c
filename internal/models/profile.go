package models

import "time"

type PatientProfile struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	FullName           *string   `json:"full_name"`
	AvatarURL          *string   `json:"avatar_url"`
	Age                *int      `json:"age"`
	Gender             *string   `json:"gender"`
	Concerns           *[]string `json:"concerns"`
	EmergencyContact   *string   `json:"emergency_contact"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ProfessionalProfile struct {
	ID                 int64               `json:"id"`
	UserID             int64               `json:"user_id"`
	FullName           *string             `json:"full_name"`
	AvatarURL          *string             `json:"avatar_url"`
	Bio                *string             `json:"bio"`
	Specializations    *[]string           `json:"specializations"`
	Credentials        *[]string           `json:"credentials"`
	ExperienceYears    *int                `json:"experience_years"`
	Rating             *float64            `json:"rating"`
	TotalReviews       int                 `json:"total_reviews"`
	IsVerified         *bool               `json:"is_verified"`
	WeeklyAvailability *WeeklyAvailability `json:"weekly_availability,omitempty"`
	OnboardingComplete bool                `json:"onboarding_complete"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

type ProfessionalWithScore struct {
	ProfessionalProfile
	MatchScore int `json:"match_score"`
}

type ProfessionalListResponse struct {
	ID              string   `json:"id"`
	FullName        string   `json:"full_name"`
	AvatarURL       string   `json:"avatar_url"`
	Specializations []string `json:"specializations"`
	ExperienceYears int      `json:"experience_years"`
	Rating          float64  `json:"rating"`
	TotalReviews    int      `json:"total_reviews"`
	MatchScore      int      `json:"match_score,omitempty"`
}

type ProfessionalDetailResponse struct {
	ProfessionalListResponse
	Bio                string   `json:"bio"`
	Credentials        []string `json:"credentials"`
	IsVerified         bool     `json:"is_verified"`
	OnboardingComplete bool     `json:"onboarding_complete"`
}
