// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and the reset-token leg of
// the password-recovery flow.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/hashing"
	"github.com/dmitrijs2005/authkeeper/internal/server/mail"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// UserService provides account operations:
//   - Register: create users with hashed passwords
//   - Authenticate: verify credentials without leaking account existence
//   - IssueResetToken / ValidateResetToken / ResetPassword: the single-use,
//     time-boxed reset-token lifecycle
type UserService struct {
	db                         *sql.DB
	repomanager                repomanager.RepositoryManager
	hasher                     hashing.Hasher
	notifier                   mail.Notifier
	logger                     logging.Logger
	resetTokenValidityDuration time.Duration
	frontendBaseURL            string

	// dummyHash is verified against when the user does not exist, so a
	// failed login costs the same whether the account is present or not.
	dummyHash string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher hashing.Hasher,
	notifier mail.Notifier, logger logging.Logger, cfg *config.Config) (*UserService, error) {

	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	return &UserService{
		db:                         db,
		repomanager:                m,
		hasher:                     hasher,
		notifier:                   notifier,
		logger:                     logger.With("module", "user_service"),
		resetTokenValidityDuration: cfg.ResetTokenValidityDuration,
		frontendBaseURL:            cfg.FrontendBaseURL,
		dummyHash:                  dummyHash,
	}, nil
}

// Register creates a new user. The password and its confirmation must match
// exactly; the check happens before anything is persisted. Duplicate
// usernames and emails surface as ErrorUsernameTaken / ErrorEmailTaken.
func (s *UserService) Register(ctx context.Context, username, email, password, confirmPassword string) (*models.User, error) {

	if password != confirmPassword {
		return nil, common.ErrorPasswordMismatch
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{Username: username, Email: email, PasswordHash: hash}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorUsernameTaken) || errors.Is(err, common.ErrorEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "username", u.Username)
	return u, nil
}

// Authenticate resolves the identifier as a username first, then as an
// email, and verifies the password against the stored hash. Every failure
// is reported as ErrorInvalidCredentials; the caller can never tell a
// missing account from a wrong password.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, identifier)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInternal
		}
		user, err = repo.GetByEmail(ctx, identifier)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				// burn a verification anyway to keep timing flat
				_, _ = s.hasher.Verify(password, s.dummyHash)
				return nil, common.ErrorInvalidCredentials
			}
			return nil, common.ErrorInternal
		}
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrorInvalidCredentials
	}

	return user, nil
}

// GetByIdentifier resolves the identifier as a username first, then as an
// email, the same order Authenticate uses. Absence is reported as
// common.ErrorNotFound; this lookup is a deliberate existence check, unlike
// login it has nothing to hide.
func (s *UserService) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	user, err = repo.GetByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	return user, nil
}

// IssueResetToken mints an unguessable single-use token, stores it on the
// user with a fixed expiry window, and mails the reset link. A delivery
// failure removes the token again and fails the whole call.
func (s *UserService) IssueResetToken(ctx context.Context, user *models.User) (string, error) {

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	expiry := time.Now().Add(s.resetTokenValidityDuration)

	repo := s.repomanager.Users(s.db)
	if err := repo.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		return "", fmt.Errorf("error storing reset token: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontendBaseURL, token)

	if err := s.notifier.SendResetLink(ctx, user.Email, user.Username, link); err != nil {
		s.logger.Error(ctx, "reset link delivery failed", "email", user.Email, "error", err.Error())
		if clearErr := repo.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.Error(ctx, "failed to clear undelivered reset token", "error", clearErr.Error())
		}
		return "", fmt.Errorf("%w: %v", common.ErrorDeliveryFailure, err)
	}

	s.logger.Info(ctx, "reset token issued", "email", user.Email)
	return token, nil
}

// ValidateResetToken reports whether the token grants a reset. It is a
// peek-only check: an expired token is reported expired but left in place,
// so the frontend can probe a link before showing the form.
func (s *UserService) ValidateResetToken(ctx context.Context, token string) (*models.User, error) {

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidResetToken
		}
		return nil, fmt.Errorf("error looking up reset token: %w", err)
	}

	if !user.ResetTokenExpiry.Valid || user.ResetTokenExpiry.Time.Before(time.Now()) {
		return nil, common.ErrorResetTokenExpired
	}

	return user, nil
}

// ResetPassword consumes a valid token: the new password hash is written and
// the token cleared in one transaction, so a second consume attempt with the
// same token fails with ErrorInvalidResetToken.
func (s *UserService) ResetPassword(ctx context.Context, token, password, confirmPassword string) error {

	if password != confirmPassword {
		return common.ErrorPasswordMismatch
	}

	user, err := s.ValidateResetToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Users(tx).ResetPassword(ctx, user.ID, hash)
	}); err != nil {
		return fmt.Errorf("error resetting password: %w", err)
	}

	s.logger.Info(ctx, "password reset", "email", user.Email)
	return nil
}
