package services

import (
	"context"

	"github.com/tommusungu/MentaCareBack/internal/models"
	"github.com/tommusungu/MentaCareBack/internal/repository"
)

type PatientProfileUpdater interface {
	UpdatePartial(ctx context.Context, userID int64, req repository.UpdatePatientProfileInput) (*models.PatientProfile, error)
}

type ProfessionalProfileUpdater interface {
	UpdatePartial(ctx context.Context, userID int64, req repository.UpdateProfessionalProfileInput) (*models.ProfessionalProfile, error)
}

type ProfileService struct {
	patientProfileRepo      PatientProfileUpdater
	professionalProfileRepo ProfessionalProfileUpdater
}

func NewProfileService(patientProfileRepo PatientProfileUpdater, professionalProfileRepo ProfessionalProfileUpdater) *ProfileService {
	return &ProfileService{
		patientProfileRepo:      patientProfileRepo,
		professionalProfileRepo: professionalProfileRepo,
	}
}

func (s *ProfileService) UpdatePatientProfile(ctx context.Context, userID int64, req repository.UpdatePatientProfileInput) (*models.PatientProfile, error) {
	return s.patientProfileRepo.UpdatePartial(ctx, userID, req)
}

func (s *ProfileService) UpdateProfessionalProfile(ctx context.Context, userID int64, req repository.UpdateProfessionalProfileInput) (*models.ProfessionalProfile, error) {
	return s.professionalProfileRepo.UpdatePartial(ctx, userID, req)
}
