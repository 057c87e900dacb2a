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
	"github.com/dmitrijs2005/authkeeper/internal/server/mail"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// resetTokenIssuer is the piece of UserService that OtpService needs after a
// successful verification.
type resetTokenIssuer interface {
	IssueResetToken(ctx context.Context, user *models.User) (string, error)
}

// OtpService owns the per-email OTP state machine:
//
//	NONE -> ISSUED -> {VERIFIED, EXPIRED, EXHAUSTED} -> deleted
//	                  mismatch -> ISSUED (attempts+1)
//
// Expiry is lazy: timestamps are checked at access time, nothing sweeps the
// table in the background.
type OtpService struct {
	db                  *sql.DB
	repomanager         repomanager.RepositoryManager
	notifier            mail.Notifier
	tokens              resetTokenIssuer
	logger              logging.Logger
	otpLength           int
	otpValidityDuration time.Duration
	otpMaxAttempts      int

	// perEmail serializes Request/Verify for the same address, so two
	// concurrent mismatched attempts cannot under-count and a verify cannot
	// race a re-issue into acting on a stale row.
	perEmail *keyedMutex
}

// NewOtpService constructs an OtpService using repositories and server config.
func NewOtpService(db *sql.DB, m repomanager.RepositoryManager, notifier mail.Notifier,
	tokens resetTokenIssuer, logger logging.Logger, cfg *config.Config) *OtpService {

	return &OtpService{
		db:                  db,
		repomanager:         m,
		notifier:            notifier,
		tokens:              tokens,
		logger:              logger.With("module", "otp_service"),
		otpLength:           cfg.OtpLength,
		otpValidityDuration: cfg.OtpValidityDuration,
		otpMaxAttempts:      cfg.OtpMaxAttempts,
		perEmail:            newKeyedMutex(),
	}
}

// Request issues a fresh OTP for the email and mails it. Any previously
// issued code for the address is discarded in the same statement. If the
// mail cannot be delivered the fresh row is removed again, so no
// undeliverable code stays live, and the call fails.
func (s *OtpService) Request(ctx context.Context, email string) error {

	unlock := s.perEmail.Lock(email)
	defer unlock()

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorUnknownAccount
		}
		return fmt.Errorf("error looking up account: %w", err)
	}

	code, err := common.MakeNumericCode(s.otpLength)
	if err != nil {
		return fmt.Errorf("error generating code: %w", err)
	}

	otp := &models.PasswordResetOtp{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(s.otpValidityDuration),
	}

	repo := s.repomanager.Otps(s.db)
	if err := repo.Replace(ctx, otp); err != nil {
		return fmt.Errorf("error storing otp: %w", err)
	}

	if err := s.notifier.SendOtp(ctx, user.Email, user.Username, code); err != nil {
		s.logger.Error(ctx, "otp delivery failed", "email", email, "error", err.Error())
		if delErr := repo.Delete(ctx, email); delErr != nil {
			s.logger.Error(ctx, "failed to remove undelivered otp", "error", delErr.Error())
		}
		return fmt.Errorf("%w: %v", common.ErrorDeliveryFailure, err)
	}

	s.logger.Info(ctx, "otp issued", "email", email)
	return nil
}

// Verify checks the submitted code against the pending OTP for the email.
// On success the row is marked verified, immediately deleted (the verified
// state is transient), and a reset token is issued for the account. Failed
// comparisons increment the attempt counter; the record is deleted once the
// limit is reached, once it expires, or if it is replayed after use.
//
// The row mutations run inside one transaction; the typed failure is carried
// out separately so deletions still commit when the call fails.
func (s *OtpService) Verify(ctx context.Context, email, code string) error {

	unlock := s.perEmail.Lock(email)
	defer unlock()

	var verifyErr error
	var verified bool

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Otps(tx)

		otp, err := repo.Get(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				verifyErr = common.ErrorNoOtpPending
				return nil
			}
			return fmt.Errorf("error loading otp: %w", err)
		}

		if otp.Verified {
			if err := repo.Delete(ctx, email); err != nil {
				return err
			}
			verifyErr = common.ErrorOtpAlreadyUsed
			return nil
		}

		if time.Now().After(otp.ExpiresAt) {
			if err := repo.Delete(ctx, email); err != nil {
				return err
			}
			verifyErr = common.ErrorOtpExpired
			return nil
		}

		if !strings.EqualFold(otp.Code, code) {
			otp.Attempts++
			if err := repo.Update(ctx, otp); err != nil {
				return err
			}
			if otp.Attempts >= s.otpMaxAttempts {
				if err := repo.Delete(ctx, email); err != nil {
					return err
				}
				verifyErr = common.ErrorTooManyAttempts
				return nil
			}
			verifyErr = common.ErrorInvalidCode
			return nil
		}

		// The verified flag is persisted for the audit trail of the
		// transaction, then the row is removed so the code cannot be
		// replayed.
		otp.Verified = true
		if err := repo.Update(ctx, otp); err != nil {
			return err
		}
		if err := repo.Delete(ctx, email); err != nil {
			return err
		}
		verified = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("error verifying otp: %w", err)
	}
	if verifyErr != nil {
		s.logger.Info(ctx, "otp verification failed", "email", email, "reason", verifyErr.Error())
		return verifyErr
	}
	if !verified {
		return common.ErrorInternal
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorUnknownAccount
		}
		return fmt.Errorf("error looking up account: %w", err)
	}

	if _, err := s.tokens.IssueResetToken(ctx, user); err != nil {
		return err
	}

	s.logger.Info(ctx, "otp verified", "email", email)
	return nil
}
