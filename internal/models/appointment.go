package models

import (
	"strings"
	"time"
)

const (
	AppointmentPending    = "pending"
	AppointmentConfirmed  = "confirmed"
	AppointmentInProgress = "in_progress"
	AppointmentCancelled  = "cancelled"
	AppointmentCompleted  = "completed"
)

// SessionNotes holds the structured SOAP documentation a professional attaches
// when completing a session. Completion requires at least one non-empty field.
type SessionNotes struct {
	Subjective *string `json:"subjective"`
	Objective  *string `json:"objective"`
	Assessment *string `json:"assessment"`
	Plan       *string `json:"plan"`
}

func (n SessionNotes) HasContent() bool {
	for _, field := range []*string{n.Subjective, n.Objective, n.Assessment, n.Plan} {
		if field != nil && strings.TrimSpace(*field) != "" {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID                 int64         `json:"id"`
	PatientID          int64         `json:"patient_id"`
	ProfessionalID     int64         `json:"professional_id"`
	ScheduledAt        time.Time     `json:"scheduled_at"`
	Status             string        `json:"status"`
	Reason             string        `json:"reason"`
	CancellationReason *string       `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty"`
	Notes              *SessionNotes `json:"notes,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

type AppointmentDetail struct {
	Appointment
	Joinable bool `json:"joinable"`
}

const (
	joinWindowBefore = 10 * time.Minute
	joinWindowAfter  = 30 * time.Minute
)

// JoinableAt reports whether the session can be joined at the given time:
// within 10 minutes before and 30 minutes after the scheduled start, and only
// while the appointment is confirmed or already in progress.
func (a *Appointment) JoinableAt(now time.Time) bool {
	if a.Status != AppointmentConfirmed && a.Status != AppointmentInProgress {
		return false
	}
	return !now.Before(a.ScheduledAt.Add(-joinWindowBefore)) &&
		!now.After(a.ScheduledAt.Add(joinWindowAfter))
}

type Call struct {
	ID            int64     `json:"id"`
	AppointmentID int64     `json:"appointment_id"`
	RoomID        string    `json:"room_id"`
	StartedBy     int64     `json:"started_by"`
	StartedAt     time.Time `json:"started_at"`
}
