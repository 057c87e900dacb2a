package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/go-chi/chi/v5"
)

// ---------- DTOs ----------

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type verifyOtpRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ---------- helpers ----------

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error to an HTTP status and user-facing message.
// Unexpected errors collapse into a generic 500 so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, common.ErrorUsernameTaken),
		errors.Is(err, common.ErrorEmailTaken):
		return http.StatusConflict
	case errors.Is(err, common.ErrorInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorUnknownAccount),
		errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorPasswordMismatch),
		errors.Is(err, common.ErrorNoOtpPending),
		errors.Is(err, common.ErrorOtpAlreadyUsed),
		errors.Is(err, common.ErrorOtpExpired),
		errors.Is(err, common.ErrorInvalidCode),
		errors.Is(err, common.ErrorTooManyAttempts),
		errors.Is(err, common.ErrorInvalidResetToken),
		errors.Is(err, common.ErrorResetTokenExpired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// ---------- handlers ----------

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, "invalid json")
		return
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Username == "" || in.Email == "" || in.Password == "" {
		badRequest(w, "username, email and password are required")
		return
	}

	user, err := s.users.Register(r.Context(), in.Username, in.Email, in.Password, in.ConfirmPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Username: user.Username, Email: user.Email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, "invalid json")
		return
	}

	in.Identifier = strings.TrimSpace(in.Identifier)
	if in.Identifier == "" || in.Password == "" {
		badRequest(w, "identifier and password are required")
		return
	}

	user, err := s.users.Authenticate(r.Context(), in.Identifier, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Username: user.Username, Email: user.Email})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(chi.URLParam(r, "identifier"))
	if identifier == "" {
		badRequest(w, "identifier is required")
		return
	}

	user, err := s.users.GetByIdentifier(r.Context(), identifier)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Username: user.Username, Email: user.Email})
}

func (s *Server) handleRequestOtp(w http.ResponseWriter, r *http.Request) {
	var in forgotPasswordRequest
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, "invalid json")
		return
	}

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" {
		badRequest(w, "email is required")
		return
	}

	if err := s.otps.Request(r.Context(), in.Email); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "verification code sent"})
}

func (s *Server) handleVerifyOtp(w http.ResponseWriter, r *http.Request) {
	var in verifyOtpRequest
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, "invalid json")
		return
	}

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Code = strings.TrimSpace(in.Code)
	if in.Email == "" || in.Code == "" {
		badRequest(w, "email and code are required")
		return
	}

	if err := s.otps.Verify(r.Context(), in.Email, in.Code); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "code verified, reset link sent"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetPasswordRequest
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, "invalid json")
		return
	}

	if in.Token == "" || in.Password == "" {
		badRequest(w, "token and password are required")
		return
	}

	if err := s.users.ResetPassword(r.Context(), in.Token, in.Password, in.ConfirmPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "password updated"})
}

func (s *Server) handleValidateResetToken(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		badRequest(w, "token is required")
		return
	}

	if _, err := s.users.ValidateResetToken(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "token is valid"})
}
