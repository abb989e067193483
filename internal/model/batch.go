package model

import "time"

// Batch statuses. A batch is written once with its final status and never
// mutated afterwards.
const (
	StatusQueued = "queued"
	StatusSent   = "sent"
	StatusError  = "error"
)

// ValidStatus reports whether s is one of the recognized batch statuses.
func ValidStatus(s string) bool {
	return s == StatusQueued || s == StatusSent || s == StatusError
}

// EmailBatch is one submitted holiday-email request together with its outcome.
type EmailBatch struct {
	ID           string    `json:"id" db:"id"`
	HolidayName  string    `json:"holidayName" db:"holiday_name"`
	Tone         string    `json:"tone,omitempty" db:"tone"`
	AudienceType string    `json:"audienceType,omitempty" db:"audience_type"`
	Language     string    `json:"language,omitempty" db:"language"`
	SenderName   string    `json:"senderName" db:"sender_name"`
	Status       string    `json:"status" db:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty" db:"error_message"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`

	// Recipients is populated on single-batch reads, ordered as submitted.
	Recipients []string `json:"recipients,omitempty" db:"-"`

	// RecipientCount is populated on list reads without loading every address.
	RecipientCount int `json:"recipientCount" db:"recipient_count"`
}
