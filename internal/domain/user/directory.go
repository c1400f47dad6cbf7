package user

import "context"

// Directory defines the read-side operations the notification pipeline needs
// from the user base. Account CRUD lives elsewhere in the application.
type Directory interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindActiveUsers(ctx context.Context) ([]*User, error)
}
