package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository is the persistence contract for user accounts. Lookups return
// common.ErrorNotFound when no row matches; Create maps unique-constraint
// violations to common.ErrorUsernameTaken / common.ErrorEmailTaken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)

	SetPassword(ctx context.Context, userID string, passwordHash string) error
	SetResetToken(ctx context.Context, userID string, token string, expiry time.Time) error
	ClearResetToken(ctx context.Context, userID string) error

	// ResetPassword sets the new password hash and clears the reset token and
	// its expiry in a single statement, so the token cannot be consumed twice.
	ResetPassword(ctx context.Context, userID string, passwordHash string) error
}
