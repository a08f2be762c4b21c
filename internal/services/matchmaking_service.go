package services

import (
	"context"
	"sort"
	"strings"

	"github.com/tommusungu/MentaCareBack/internal/models"
)

type ProfessionalMatcher interface {
	ListAll(ctx context.Context) ([]models.ProfessionalProfile, error)
}

type MatchmakingService struct {
	professionalRepo ProfessionalMatcher
}

func NewMatchmakingService(professionalRepo ProfessionalMatcher) *MatchmakingService {
	return &MatchmakingService{professionalRepo: professionalRepo}
}

func (s *MatchmakingService) GetMatchedProfessionals(
	ctx context.Context,
	patientProfile *models.PatientProfile,
	limit int,
) ([]models.ProfessionalWithScore, error) {
	professionals, err := s.professionalRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.ProfessionalWithScore, 0, len(professionals))
	for _, professional := range professionals {
		matched = append(matched, models.ProfessionalWithScore{
			ProfessionalProfile: professional,
			MatchScore:          calculateMatchScore(patientProfile, &professional),
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].MatchScore == matched[j].MatchScore {
			return floatValue(matched[i].Rating) > floatValue(matched[j].Rating)
		}
		return matched[i].MatchScore > matched[j].MatchScore
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

func calculateMatchScore(patientProfile *models.PatientProfile, professional *models.ProfessionalProfile) int {
	score := 0
	concernTags := concernAliases(patientProfile)
	specs := normalizeValues(professional.Specializations)

	for _, aliases := range concernTags {
		for _, alias := range aliases {
			if _, ok := specs[alias]; ok {
				score += 40
				break
			}
		}
	}

	if floatValue(professional.Rating) > 4.0 {
		score += 20
	}
	if intValue(professional.ExperienceYears) > 3 {
		score += 15
	}
	if len(sliceValue(professional.Credentials)) > 0 {
		score += 10
	}
	if boolValue(professional.IsVerified) {
		score += 15
	}

	return score
}

func concernAliases(patientProfile *models.PatientProfile) map[string][]string {
	concerns := sliceValue(nil)
	if patientProfile != nil {
		concerns = sliceValue(patientProfile.Concerns)
	}

	mapped := make(map[string][]string, len(concerns))
	for _, concern := range concerns {
		switch normalize(concern) {
		case "anxiety", "panic":
			mapped["anxiety"] = []string{"anxiety", "panic_disorders"}
		case "depression", "mood":
			mapped["depression"] = []string{"depression", "mood_disorders"}
		case "stress", "burnout":
			mapped["stress"] = []string{"stress", "burnout", "stress_management"}
		case "relationships", "couples":
			mapped["relationships"] = []string{"relationships", "couples_therapy", "family_therapy"}
		case "trauma", "ptsd":
			mapped["trauma"] = []string{"trauma", "ptsd", "emdr"}
		default:
			if key := normalize(concern); key != "" {
				mapped[key] = []string{key}
			}
		}
	}

	return mapped
}

func normalizeValues(values *[]string) map[string]struct{} {
	normalized := make(map[string]struct{})
	for _, value := range sliceValue(values) {
		if key := normalize(value); key != "" {
			normalized[key] = struct{}{}
		}
	}
	return normalized
}

func normalize(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	value = strings.ReplaceAll(value, " ", "_")
	value = strings.ReplaceAll(value, "-", "_")
	return value
}

func sliceValue(values *[]string) []string {
	if values == nil {
		return nil
	}
	return *values
}

func floatValue(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}

func intValue(value *int) int {
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
