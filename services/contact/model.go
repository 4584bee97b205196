package contact

import (
	"regexp"
	"time"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ContactMessage is the stored copy of a submitted contact-form. Kept even
// when email delivery is disabled or fails.
type ContactMessage struct {
	UID       string
	Name      string
	Email     string
	Message   string `datastore:",noindex"`
	CreatedAt time.Time
}
