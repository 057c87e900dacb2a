package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	otpsrepo "github.com/dmitrijs2005/authkeeper/internal/server/repositories/otps"
	usersrepo "github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// plainHasher keeps service tests fast; the real argon2 implementation is
// covered in the hashing package.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "plain:" + password, nil
}

func (plainHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "plain:"+password, nil
}

// --- in-memory users repository ---

type memUsersRepo struct {
	users  map[string]*models.User // keyed by ID
	nextID int
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{users: map[string]*models.User{}}
}

func (m *memUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == user.Username {
			return nil, common.ErrorUsernameTaken
		}
		if u.Email == user.Email {
			return nil, common.ErrorEmailTaken
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("u-%d", m.nextID)
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return user, nil
}

func (m *memUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username })
}

func (m *memUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *memUsersRepo) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ResetToken.Valid && u.ResetToken.String == token })
}

func (m *memUsersRepo) find(match func(*models.User) bool) (*models.User, error) {
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsersRepo) SetPassword(ctx context.Context, userID string, passwordHash string) error {
	u, ok := m.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memUsersRepo) SetResetToken(ctx context.Context, userID string, token string, expiry time.Time) error {
	u, ok := m.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.ResetToken = sql.NullString{String: token, Valid: true}
	u.ResetTokenExpiry = sql.NullTime{Time: expiry, Valid: true}
	return nil
}

func (m *memUsersRepo) ClearResetToken(ctx context.Context, userID string) error {
	u, ok := m.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.ResetToken = sql.NullString{}
	u.ResetTokenExpiry = sql.NullTime{}
	return nil
}

func (m *memUsersRepo) ResetPassword(ctx context.Context, userID string, passwordHash string) error {
	u, ok := m.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = sql.NullString{}
	u.ResetTokenExpiry = sql.NullTime{}
	return nil
}

// --- in-memory otps repository ---

type memOtpsRepo struct {
	rows map[string]*models.PasswordResetOtp
}

func newMemOtpsRepo() *memOtpsRepo {
	return &memOtpsRepo{rows: map[string]*models.PasswordResetOtp{}}
}

func (m *memOtpsRepo) Get(ctx context.Context, email string) (*models.PasswordResetOtp, error) {
	otp, ok := m.rows[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return otp, nil
}

func (m *memOtpsRepo) Replace(ctx context.Context, otp *models.PasswordResetOtp) error {
	m.rows[otp.Email] = otp
	return nil
}

func (m *memOtpsRepo) Update(ctx context.Context, otp *models.PasswordResetOtp) error {
	if _, ok := m.rows[otp.Email]; !ok {
		return common.ErrorNotFound
	}
	m.rows[otp.Email] = otp
	return nil
}

func (m *memOtpsRepo) Delete(ctx context.Context, email string) error {
	delete(m.rows, email)
	return nil
}

// --- repository manager over the fakes ---

type fakeRepoManager struct {
	u *memUsersRepo
	o *memOtpsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newMemUsersRepo(), o: newMemOtpsRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Otps(db dbx.DBTX) otpsrepo.Repository         { return m.o }

// --- notifier fake ---

type sentMessage struct {
	email    string
	username string
	payload  string // code or link
}

type fakeNotifier struct {
	otpErr  error
	linkErr error

	otps  []sentMessage
	links []sentMessage
}

func (f *fakeNotifier) SendOtp(ctx context.Context, email, username, code string) error {
	if f.otpErr != nil {
		return f.otpErr
	}
	f.otps = append(f.otps, sentMessage{email: email, username: username, payload: code})
	return nil
}

func (f *fakeNotifier) SendResetLink(ctx context.Context, email, username, link string) error {
	if f.linkErr != nil {
		return f.linkErr
	}
	f.links = append(f.links, sentMessage{email: email, username: username, payload: link})
	return nil
}

func (f *fakeNotifier) lastOtpCode(t *testing.T) string {
	t.Helper()
	if len(f.otps) == 0 {
		t.Fatal("no otp was sent")
	}
	return f.otps[len(f.otps)-1].payload
}

func (f *fakeNotifier) lastLinkToken(t *testing.T) string {
	t.Helper()
	if len(f.links) == 0 {
		t.Fatal("no reset link was sent")
	}
	link := f.links[len(f.links)-1].payload
	i := strings.Index(link, "token=")
	if i < 0 {
		t.Fatalf("link has no token parameter: %s", link)
	}
	return link[i+len("token="):]
}

// --- reset token issuer fake ---

type fakeTokenIssuer struct {
	err    error
	issued []*models.User
}

func (f *fakeTokenIssuer) IssueResetToken(ctx context.Context, user *models.User) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.issued = append(f.issued, user)
	return "token-" + user.ID, nil
}
