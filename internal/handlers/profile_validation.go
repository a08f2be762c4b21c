package handlers

import (
	"strings"
)

var allowedGenders = map[string]struct{}{
	"male":              {},
	"female":            {},
	"other":             {},
	"prefer_not_to_say": {},
}

var weekdays = map[string]struct{}{
	"monday":    {},
	"tuesday":   {},
	"wednesday": {},
	"thursday":  {},
	"friday":    {},
	"saturday":  {},
	"sunday":    {},
}

func validatePatientOnboardingRequest(req patientOnboardingRequest) string {
	if strings.TrimSpace(req.FullName) == "" {
		return "full_name is required"
	}
	if req.Age <= 0 {
		return "age must be greater than 0"
	}
	if err := validateGender(req.Gender); err != "" {
		return err
	}
	if len(req.Concerns) == 0 {
		return "concerns must contain at least one item"
	}
	for _, concern := range req.Concerns {
		if strings.TrimSpace(concern) == "" {
			return "concerns must not contain empty values"
		}
	}
	return ""
}

func validateProfessionalOnboardingRequest(req professionalOnboardingRequest) string {
	if strings.TrimSpace(req.FullName) == "" {
		return "full_name is required"
	}
	if strings.TrimSpace(req.Bio) == "" {
		return "bio is required"
	}
	if len(req.Specializations) == 0 {
		return "specializations must contain at least one item"
	}
	for _, specialization := range req.Specializations {
		if strings.TrimSpace(specialization) == "" {
			return "specializations must not contain empty values"
		}
	}
	if len(req.Credentials) == 0 {
		return "credentials must contain at least one item"
	}
	for _, credential := range req.Credentials {
		if strings.TrimSpace(credential) == "" {
			return "credentials must not contain empty values"
		}
	}
	if req.ExperienceYears < 0 {
		return "experience_years must be 0 or greater"
	}
	if err := validateWeeklyAvailability(req.WeeklyAvailability); err != "" {
		return err
	}
	return ""
}

func validatePatientProfileUpdateRequest(req updatePatientProfileRequest) string {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return "full_name must not be empty"
	}
	if req.Age != nil && *req.Age <= 0 {
		return "age must be greater than 0"
	}
	if req.Gender != nil {
		if err := validateGender(*req.Gender); err != "" {
			return err
		}
	}
	if req.Concerns != nil {
		for _, concern := range *req.Concerns {
			if strings.TrimSpace(concern) == "" {
				return "concerns must not contain empty values"
			}
		}
	}
	if req.EmergencyContact != nil && strings.TrimSpace(*req.EmergencyContact) == "" {
		return "emergency_contact must not be empty"
	}
	return ""
}

func validateProfessionalProfileUpdateRequest(req updateProfessionalProfileRequest) string {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return "full_name must not be empty"
	}
	if req.Bio != nil && strings.TrimSpace(*req.Bio) == "" {
		return "bio must not be empty"
	}
	if req.Specializations != nil {
		for _, specialization := range *req.Specializations {
			if strings.TrimSpace(specialization) == "" {
				return "specializations must not contain empty values"
			}
		}
	}
	if req.Credentials != nil {
		for _, credential := range *req.Credentials {
			if strings.TrimSpace(credential) == "" {
				return "credentials must not contain empty values"
			}
		}
	}
	if req.ExperienceYears != nil && *req.ExperienceYears < 0 {
		return "experience_years must be 0 or greater"
	}
	if req.WeeklyAvailability != nil {
		if err := validateWeeklyAvailability(*req.WeeklyAvailability); err != "" {
			return err
		}
	}
	return ""
}

func validateGender(gender string) string {
	if _, ok := allowedGenders[strings.TrimSpace(gender)]; !ok {
		return "gender must be one of: male, female, other, prefer_not_to_say"
	}
	return ""
}

// Slots are "HH:mm" starts keyed by lowercase weekday name.
func validateWeeklyAvailability(weekly map[string][]string) string {
	for day, slots := range weekly {
		if _, ok := weekdays[strings.ToLower(strings.TrimSpace(day))]; !ok {
			return "weekly_availability keys must be weekday names"
		}
		for _, slot := range slots {
			if !validSlot(slot) {
				return "weekly_availability slots must be HH:mm times"
			}
		}
	}
	return ""
}

func validSlot(slot string) bool {
	slot = strings.TrimSpace(slot)
	if len(slot) != 5 || slot[2] != ':' {
		return false
	}
	hour := slot[:2]
	minute := slot[3:]
	for _, part := range []string{hour, minute} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return hour <= "23" && minute <= "59"
}
