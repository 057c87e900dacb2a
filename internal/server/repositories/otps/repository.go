package otps

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository is the persistence contract for pending one-time passcodes.
// The email column is the primary key, so Replace atomically discards any
// previously issued code for the same address.
type Repository interface {
	Get(ctx context.Context, email string) (*models.PasswordResetOtp, error)
	Replace(ctx context.Context, otp *models.PasswordResetOtp) error
	Update(ctx context.Context, otp *models.PasswordResetOtp) error
	Delete(ctx context.Context, email string) error
}
