package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tommusungu/MentaCareBack/internal/models"
)

// Mailer hands notification emails to the external mail dispatcher. Delivery
// is fire and forget: failures are logged, never surfaced to the caller, and
// never block the request that triggered them.
type Mailer struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewMailer(baseURL string, logger *zap.Logger) *Mailer {
	return &Mailer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (m *Mailer) SendWelcomeEmail(email, role string) {
	m.dispatch("/send-welcome-email", map[string]any{
		"email": email,
		"role":  role,
	})
}

func (m *Mailer) SendBookingConfirmation(appointment *models.Appointment, patientEmail, professionalEmail string) {
	m.dispatch("/send-booking-confirmation", map[string]any{
		"appointment_id":     appointment.ID,
		"scheduled_at":       appointment.ScheduledAt.UTC().Format(time.RFC3339),
		"patient_email":      patientEmail,
		"professional_email": professionalEmail,
	})
}

func (m *Mailer) SendAppointmentAccepted(appointment *models.Appointment, patientEmail string) {
	m.dispatch("/accept-appointment", map[string]any{
		"appointment_id": appointment.ID,
		"scheduled_at":   appointment.ScheduledAt.UTC().Format(time.RFC3339),
		"patient_email":  patientEmail,
	})
}

func (m *Mailer) dispatch(endpoint string, payload map[string]any) {
	if m.baseURL == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := m.post(ctx, endpoint, payload); err != nil {
			m.logger.Warn("mail dispatch failed",
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
		}
	}()
}

func (m *Mailer) post(ctx context.Context, endpoint string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
