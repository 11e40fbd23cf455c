// internal/database/contact.go
// Package database persists contact-form submissions to the Postgres queue
// the helpdesk works through. The queue is optional; when no database URL is
// configured the web form simply skips persistence.
package database

import (
	"encoding/json"
	"time"
)

// Contact queue statuses as stored in contact_queue.status.
const (
	StatusWaiting = "waiting"
	StatusClosed  = "closed"
)

// ContactTypes lists the request categories the form offers, in display order.
var ContactTypes = []string{
	"Claim",
	"Benefits",
	"Doctor List",
	"Eligibility",
	"ID Card",
	"Other",
	"Website Navigation",
}

// Contact is one row of the contact queue. Payload holds the submission as it
// arrived, before any normalization; FinalPrompt is the prompt that produced
// the stored answer.
type Contact struct {
	ID          string          `json:"id"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Email       string          `json:"email"`
	DateOfBirth string          `json:"date_of_birth"`
	ContactType string          `json:"contact_type"`
	Question    string          `json:"question"`
	Answer      string          `json:"answer"`
	FinalPrompt string          `json:"final_prompt,omitempty"`
	Status      string          `json:"status"`
	Grade       *int            `json:"grade,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ValidContactType reports whether t is one of the offered categories.
func ValidContactType(t string) bool {
	for _, known := range ContactTypes {
		if known == t {
			return true
		}
	}
	return false
}

// ValidGrade reports whether g is an accepted helpdesk evaluation.
func ValidGrade(g int) bool {
	return g >= 1 && g <= 5
}
