package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account permitted to call the HTTP API (§6 POST /auth/token).
// This is the thin boundary spec.md §1 marks out-of-scope; it carries only
// what's needed to authenticate and stamp audit/job ownership.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Active       bool
	IsSuperuser  bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
