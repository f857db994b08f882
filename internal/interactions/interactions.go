package interactions

import (
	"errors"
	"time"
)

var (
	ErrUnauthenticated  = errors.New("user not authenticated")
	ErrMissingContactID = errors.New("contact id is required")
)

const (
	MsgUnauthenticated  = "User not authenticated."
	MsgMissingContactID = "Contact ID is required."
	MsgRecordFailed     = "Could not mark contact as viewed."
)

// Cache regions that render contact view state.
const (
	PathDashboard     = "/dashboard"
	PathDocumentation = "/documentation"
	PathSettings      = "/settings"
)

// Interaction records the first time a user viewed a contact.
type Interaction struct {
	UserID    string    `json:"user_id"`
	ContactID string    `json:"contact_id"`
	ViewedAt  time.Time `json:"viewed_at"`
}

// Result is the uniform outcome returned to callers of RecordView.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
