package services

import (
	"context"
	"testing"

	"github.com/tommusungu/MentaCareBack/internal/models"
)

type stubProfessionalMatcher struct {
	professionals []models.ProfessionalProfile
}

func (s *stubProfessionalMatcher) ListAll(_ context.Context) ([]models.ProfessionalProfile, error) {
	return s.professionals, nil
}

func TestGetMatchedProfessionalsSortsByScoreThenRating(t *testing.T) {
	concerns := []string{"anxiety", "depression"}
	service := NewMatchmakingService(&stubProfessionalMatcher{
		professionals: []models.ProfessionalProfile{
			buildProfessionalProfile(11, []string{"anxiety", "mood_disorders"}, 4.8, 6, []string{"LMFT"}, true),
			buildProfessionalProfile(12, []string{"depression"}, 4.9, 4, nil, false),
			buildProfessionalProfile(13, []string{"emdr"}, 5.0, 10, []string{"PhD"}, true),
		},
	})

	matched, err := service.GetMatchedProfessionals(context.Background(), &models.PatientProfile{
		Concerns: &concerns,
	}, 3)
	if err != nil {
		t.Fatalf("GetMatchedProfessionals: %v", err)
	}

	if got := len(matched); got != 3 {
		t.Fatalf("expected 3 professionals, got %d", got)
	}
	if matched[0].UserID != 11 || matched[0].MatchScore != 140 {
		t.Fatalf("expected professional 11 with score 140 first, got %d with score %d", matched[0].UserID, matched[0].MatchScore)
	}
	if matched[1].UserID != 12 || matched[1].MatchScore != 75 {
		t.Fatalf("expected professional 12 with score 75 second, got %d with score %d", matched[1].UserID, matched[1].MatchScore)
	}
	if matched[2].UserID != 13 || matched[2].MatchScore != 60 {
		t.Fatalf("expected professional 13 with score 60 third, got %d with score %d", matched[2].UserID, matched[2].MatchScore)
	}
}

func TestGetMatchedProfessionalsAppliesLimit(t *testing.T) {
	concerns := []string{"stress"}
	service := NewMatchmakingService(&stubProfessionalMatcher{
		professionals: []models.ProfessionalProfile{
			buildProfessionalProfile(1, []string{"burnout"}, 4.5, 5, nil, false),
			buildProfessionalProfile(2, []string{"couples_therapy"}, 4.9, 7, nil, false),
		},
	})

	matched, err := service.GetMatchedProfessionals(context.Background(), &models.PatientProfile{Concerns: &concerns}, 1)
	if err != nil {
		t.Fatalf("GetMatchedProfessionals: %v", err)
	}
	if got := len(matched); got != 1 {
		t.Fatalf("expected 1 professional, got %d", got)
	}
	if matched[0].UserID != 1 {
		t.Fatalf("expected top professional to be 1, got %d", matched[0].UserID)
	}
}

func TestGetMatchedProfessionalsVerifiedBonus(t *testing.T) {
	concerns := []string{"trauma"}
	service := NewMatchmakingService(&stubProfessionalMatcher{
		professionals: []models.ProfessionalProfile{
			buildProfessionalProfile(1, []string{"ptsd"}, 4.2, 4, nil, true),
			buildProfessionalProfile(2, []string{"ptsd"}, 4.2, 4, nil, false),
		},
	})

	matched, err := service.GetMatchedProfessionals(context.Background(), &models.PatientProfile{
		Concerns: &concerns,
	}, 2)
	if err != nil {
		t.Fatalf("GetMatchedProfessionals: %v", err)
	}

	if matched[0].MatchScore != matched[1].MatchScore+15 {
		t.Fatalf("expected verification bonus gap of 15, got %d vs %d", matched[0].MatchScore, matched[1].MatchScore)
	}
}

func TestConcernAliasesHandleDocumentedSynonyms(t *testing.T) {
	concerns := []string{"panic", "burnout"}
	service := NewMatchmakingService(&stubProfessionalMatcher{
		professionals: []models.ProfessionalProfile{
			buildProfessionalProfile(1, []string{"panic disorders", "stress management"}, 0, 0, nil, false),
		},
	})

	matched, err := service.GetMatchedProfessionals(context.Background(), &models.PatientProfile{
		Concerns: &concerns,
	}, 1)
	if err != nil {
		t.Fatalf("GetMatchedProfessionals: %v", err)
	}

	if got := matched[0].MatchScore; got != 80 {
		t.Fatalf("expected synonym concern match score 80, got %d", got)
	}
}

func buildProfessionalProfile(userID int64, specs []string, rating float64, experience int, credentials []string, verified bool) models.ProfessionalProfile {
	profile := models.ProfessionalProfile{
		UserID:             userID,
		Specializations:    &specs,
		Rating:             &rating,
		ExperienceYears:    &experience,
		IsVerified:         &verified,
		OnboardingComplete: true,
	}
	if credentials != nil {
		profile.Credentials = &credentials
	}
	return profile
}
