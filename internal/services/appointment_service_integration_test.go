package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/tommusungu/MentaCareBack/internal/models"
	"github.com/tommusungu/MentaCareBack/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestAppointmentServiceBookConfirmCompleteFlow(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationAppointmentService(pool)

	patientID := createTestAccount(t, ctx, pool, "patient")
	professionalID := createTestAccount(t, ctx, pool, "professional")
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, patientID, professionalID) })

	scheduledAt := futureSlot()
	appointment, err := service.BookAppointment(ctx, patientID, BookAppointmentInput{
		ProfessionalID: professionalID,
		ScheduledAt:    scheduledAt,
		Reason:         "Recurring anxiety",
	})
	if err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}
	if appointment.Status != models.AppointmentPending {
		t.Fatalf("expected pending appointment, got %q", appointment.Status)
	}

	confirmed, err := service.UpdateStatus(ctx, professionalID, "professional", appointment.ID, UpdateAppointmentStatusInput{
		Status: "accept",
	})
	if err != nil {
		t.Fatalf("UpdateStatus confirm: %v", err)
	}
	if confirmed.Status != models.AppointmentConfirmed {
		t.Fatalf("expected confirmed appointment, got %q", confirmed.Status)
	}

	if _, err := service.UpdateStatus(ctx, professionalID, "professional", appointment.ID, UpdateAppointmentStatusInput{
		Status: "complete",
	}); err != ErrNotesRequired {
		t.Fatalf("expected ErrNotesRequired without notes, got %v", err)
	}

	plan := "Weekly check-ins"
	completed, err := service.UpdateStatus(ctx, professionalID, "professional", appointment.ID, UpdateAppointmentStatusInput{
		Status: "complete",
		Notes:  &models.SessionNotes{Plan: &plan},
	})
	if err != nil {
		t.Fatalf("UpdateStatus complete: %v", err)
	}
	if completed.Status != models.AppointmentCompleted {
		t.Fatalf("expected completed appointment, got %q", completed.Status)
	}
	if completed.Notes == nil || completed.Notes.Plan == nil || *completed.Notes.Plan != plan {
		t.Fatalf("expected persisted notes, got %+v", completed.Notes)
	}
}

func TestAppointmentServiceRejectsDoubleBooking(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationAppointmentService(pool)

	firstPatientID := createTestAccount(t, ctx, pool, "patient")
	secondPatientID := createTestAccount(t, ctx, pool, "patient")
	professionalID := createTestAccount(t, ctx, pool, "professional")
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, firstPatientID, secondPatientID, professionalID) })

	scheduledAt := futureSlot()
	if _, err := service.BookAppointment(ctx, firstPatientID, BookAppointmentInput{
		ProfessionalID: professionalID,
		ScheduledAt:    scheduledAt,
		Reason:         "Sleep issues",
	}); err != nil {
		t.Fatalf("first BookAppointment: %v", err)
	}

	_, err := service.BookAppointment(ctx, secondPatientID, BookAppointmentInput{
		ProfessionalID: professionalID,
		ScheduledAt:    scheduledAt,
		Reason:         "Stress",
	})
	if err != ErrSlotTaken {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestAppointmentServiceInProgressStillHoldsSlot(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationAppointmentService(pool)

	firstPatientID := createTestAccount(t, ctx, pool, "patient")
	secondPatientID := createTestAccount(t, ctx, pool, "patient")
	professionalID := createTestAccount(t, ctx, pool, "professional")
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, firstPatientID, secondPatientID, professionalID) })

	scheduledAt := futureSlot()
	appointment, err := service.BookAppointment(ctx, firstPatientID, BookAppointmentInput{
		ProfessionalID: professionalID,
		ScheduledAt:    scheduledAt,
		Reason:         "Sleep issues",
	})
	if err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}

	// A session underway leaves confirmed when a participant joins; the slot
	// must stay held until the appointment reaches a terminal status.
	if _, err := pool.Exec(ctx,
		`UPDATE appointments SET status = 'in_progress' WHERE id = $1`,
		appointment.ID,
	); err != nil {
		t.Fatalf("move appointment to in_progress: %v", err)
	}

	_, err = service.BookAppointment(ctx, secondPatientID, BookAppointmentInput{
		ProfessionalID: professionalID,
		ScheduledAt:    scheduledAt,
		Reason:         "Stress",
	})
	if err != ErrSlotTaken {
		t.Fatalf("expected ErrSlotTaken for an in_progress slot, got %v", err)
	}
}

func TestAppointmentServiceConcurrentBookingAdmitsOne(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationAppointmentService(pool)

	firstPatientID := createTestAccount(t, ctx, pool, "patient")
	secondPatientID := createTestAccount(t, ctx, pool, "patient")
	professionalID := createTestAccount(t, ctx, pool, "professional")
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, firstPatientID, secondPatientID, professionalID) })

	scheduledAt := futureSlot()
	results := make(chan error, 2)
	for _, patientID := range []int64{firstPatientID, secondPatientID} {
		go func(id int64) {
			_, err := service.BookAppointment(ctx, id, BookAppointmentInput{
				ProfessionalID: professionalID,
				ScheduledAt:    scheduledAt,
				Reason:         "Burnout",
			})
			results <- err
		}(patientID)
	}

	var succeeded, conflicted int
	for i := 0; i < 2; i++ {
		switch err := <-results; err {
		case nil:
			succeeded++
		case ErrSlotTaken:
			conflicted++
		default:
			t.Fatalf("unexpected booking error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Fatalf("expected exactly one winner, got %d successes and %d conflicts", succeeded, conflicted)
	}
}

func TestAppointmentServiceRejectsUndeclaredSlot(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationAppointmentService(pool)

	patientID := createTestAccount(t, ctx, pool, "patient")
	professionalID := createTestAccount(t, ctx, pool, "professional")
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, patientID, professionalID) })

	offSchedule := futureSlot().Add(3 * time.Hour)
	_, err := service.BookAppointment(ctx, patientID, BookAppointmentInput{
		ProfessionalID: professionalID,
		ScheduledAt:    offSchedule,
		Reason:         "Stress",
	})
	if err != ErrSlotUnavailable {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func newIntegrationAppointmentService(pool *pgxpool.Pool) *AppointmentService {
	checker := NewAvailabilityChecker(
		repository.NewAvailabilityRepository(pool),
		repository.NewProfessionalProfileRepository(pool),
		repository.NewAppointmentRepository(pool),
	)
	return NewAppointmentService(
		pool,
		repository.NewAppointmentRepository(pool),
		repository.NewCallRepository(pool),
		repository.NewUserRepository(pool),
		checker,
		nil,
	)
}

// futureSlot returns a far-future Thursday at 09:00 UTC, matching the weekly
// schedule createTestAccount declares for professionals.
func futureSlot() time.Time {
	return time.Date(2030, 4, 4, 9, 0, 0, 0, time.UTC)
}

func createTestAccount(t *testing.T, ctx context.Context, pool *pgxpool.Pool, role string) int64 {
	t.Helper()

	userRepo := repository.NewUserRepository(pool)
	user := &models.User{
		Email:        fmt.Sprintf("appointment-test-%s-%d@example.com", role, time.Now().UnixNano()),
		PasswordHash: "test-hash",
		Role:         role,
	}
	if err := userRepo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser(%s): %v", role, err)
	}

	if role == "patient" {
		patientProfileRepo := repository.NewPatientProfileRepository(pool)
		if err := patientProfileRepo.CreateEmpty(ctx, user.ID); err != nil {
			t.Fatalf("CreateEmpty patient profile: %v", err)
		}
		return user.ID
	}

	professionalProfileRepo := repository.NewProfessionalProfileRepository(pool)
	if err := professionalProfileRepo.CreateEmpty(ctx, user.ID); err != nil {
		t.Fatalf("CreateEmpty professional profile: %v", err)
	}
	if _, err := professionalProfileRepo.UpdateOnboarding(ctx, user.ID, repository.ProfessionalOnboardingInput{
		FullName:        "Test Professional",
		Bio:             "Test Bio",
		Specializations: []string{"anxiety"},
		Credentials:     []string{"PhD"},
		ExperienceYears: 3,
		WeeklyAvailability: models.WeeklyAvailability{
			"thursday": {"09:00"},
		},
	}); err != nil {
		t.Fatalf("UpdateOnboarding professional profile: %v", err)
	}
	availabilityRepo := repository.NewAvailabilityRepository(pool)
	if _, err := availabilityRepo.Upsert(ctx, user.ID, models.WeeklyAvailability{
		"thursday": {"09:00"},
	}); err != nil {
		t.Fatalf("Upsert availability: %v", err)
	}

	return user.ID
}

func cleanupTestUsers(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userIDs ...int64) {
	t.Helper()

	if len(userIDs) == 0 {
		return
	}

	if _, err := pool.Exec(ctx, "DELETE FROM calls WHERE appointment_id IN (SELECT id FROM appointments WHERE patient_id = ANY($1) OR professional_id = ANY($1))", userIDs); err != nil {
		t.Fatalf("cleanup calls: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM appointments WHERE patient_id = ANY($1) OR professional_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup appointments: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM messages WHERE conversation_id IN (SELECT id FROM conversations WHERE patient_id = ANY($1) OR professional_id = ANY($1))", userIDs); err != nil {
		t.Fatalf("cleanup messages: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM conversations WHERE patient_id = ANY($1) OR professional_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup conversations: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM availability WHERE professional_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup availability: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup users: %v", err)
	}
}
