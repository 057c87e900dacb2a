package otps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, email string) (*models.PasswordResetOtp, error) {

	query :=
		`SELECT email, code, expires_at, attempts, verified, created_at
		 FROM password_reset_otps
		 WHERE email = $1
		 `

	otp := &models.PasswordResetOtp{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&otp.Email, &otp.Code, &otp.ExpiresAt, &otp.Attempts, &otp.Verified, &otp.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return otp, nil
}

// Replace inserts a fresh OTP row for the email, overwriting any existing
// one in the same statement.
func (r *PostgresRepository) Replace(ctx context.Context, otp *models.PasswordResetOtp) error {

	query :=
		`INSERT INTO password_reset_otps (email, code, expires_at, attempts, verified)
         VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (email) DO UPDATE
		 SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at,
		     attempts = EXCLUDED.attempts, verified = EXCLUDED.verified,
		     created_at = now()
		 `

	_, err := r.db.ExecContext(ctx, query,
		otp.Email, otp.Code, otp.ExpiresAt, otp.Attempts, otp.Verified)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, otp *models.PasswordResetOtp) error {

	query :=
		`UPDATE password_reset_otps
		 SET attempts = $2, verified = $3
		 WHERE email = $1
		 `

	res, err := r.db.ExecContext(ctx, query, otp.Email, otp.Attempts, otp.Verified)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, email string) error {

	query := `DELETE FROM password_reset_otps WHERE email = $1`

	_, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
