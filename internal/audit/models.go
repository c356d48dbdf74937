package audit

import "time"

// Event is an immutable, append-only audit log record for the auth
// core.
//
// Invariants:
// - Events are never updated or deleted.
// - Events carry the server-side failure detail that the uniform 401
//   response deliberately withholds from the client.
// - Actor and ip capture are best-effort; do not block auth flows on
//   audit failures.
//
// Storage recommendation (Postgres):
// - Table audit_events with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time for retention.

type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the auth event category of the record.
	Type EventType `json:"type" db:"type"`

	// PrincipalType is admin or customer; PrincipalID may be empty when
	// the actor never got past credential extraction.
	PrincipalType string `json:"principal_type" db:"principal_type"`
	PrincipalID   string `json:"principal_id,omitempty" db:"principal_id"`
	Identity      string `json:"identity,omitempty" db:"identity"`

	// IPAddress should capture the original client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeLoginSuccess   EventType = "login_success"
	EventTypeLoginFailure   EventType = "login_failure"
	EventTypeStageIssued    EventType = "stage_issued"
	EventTypeTokenReissued  EventType = "token_reissued"
	EventTypeTokenRevoked   EventType = "token_revoked"
	EventTypePasswordReset  EventType = "password_reset"
	EventTypeRegistration   EventType = "registration"
)
