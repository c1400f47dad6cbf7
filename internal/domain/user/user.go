package user

import (
	"database/sql"
	"time"
)

// User represents an account holder who can receive notifications.
type User struct {
	ID               int64
	FirstName        string
	Email            sql.NullString
	Phone            sql.NullString
	PreferredChannel sql.NullString // "EMAIL" or "SMS" when the user picked one
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
