// Package web exposes the auth service over a JSON HTTP API. Handlers are
// thin: decode the request, call a service, map the error kind to a status.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// UserService is the account-facing surface consumed by the handlers.
type UserService interface {
	Register(ctx context.Context, username, email, password, confirmPassword string) (*models.User, error)
	Authenticate(ctx context.Context, identifier, password string) (*models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	ValidateResetToken(ctx context.Context, token string) (*models.User, error)
	ResetPassword(ctx context.Context, token, password, confirmPassword string) error
}

// OtpService is the recovery-code surface consumed by the handlers.
type OtpService interface {
	Request(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) error
}

type Server struct {
	address         string
	logger          logging.Logger
	users           UserService
	otps            OtpService
	frontendBaseURL string
}

func NewServer(address string, l logging.Logger, us UserService, os OtpService, frontendBaseURL string) *Server {
	return &Server{
		address:         address,
		logger:          l.With("module", "http_server"),
		users:           us,
		otps:            os,
		frontendBaseURL: frontendBaseURL,
	}
}

// Routes builds the router. Exported so tests can drive handlers through
// httptest without binding a socket.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.frontendBaseURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/forgot-password/request-otp", s.handleRequestOtp)
		r.Post("/forgot-password/verify-otp", s.handleVerifyOtp)
		r.Post("/reset-password", s.handleResetPassword)
		r.Get("/reset-password/validate", s.handleValidateResetToken)
	})

	r.Get("/api/users/{identifier}", s.handleGetUser)

	return r
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info(r.Context(), "request",
			"method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start).String())
	})
}
