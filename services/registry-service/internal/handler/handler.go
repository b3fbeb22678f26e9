// Package handler exposes the portal's JSON API: registration, login,
// password reset, and the admin endpoints. Handlers depend on the user
// directory interface only and never see which backend served a call.
package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/config"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/payload"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/repository"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/usecase"
	"github.com/vasapolrittideah/member-portal-api/shared/auth"
	"github.com/vasapolrittideah/member-portal-api/shared/httputil"
	"github.com/vasapolrittideah/member-portal-api/shared/mailer"
	"github.com/vasapolrittideah/member-portal-api/shared/middleware"
	"github.com/vasapolrittideah/member-portal-api/shared/provider"
	"github.com/vasapolrittideah/member-portal-api/shared/validator"
)

// Mailer is the slice of the shared mailer the portal needs.
type Mailer interface {
	SendHTML(to []string, subject, htmlBody string) error
}

var _ Mailer = (*mailer.Mailer)(nil)

// Handler serves the portal API.
type Handler struct {
	directory usecase.UserDirectory
	validate  *validator.Validator
	jwtAuth   auth.JWTAuthenticator
	mailer    Mailer
	google    *provider.GoogleOAuthProvider
	cfg       *config.Config
	logger    *zerolog.Logger
}

// NewHandler creates a Handler. google may be nil when Google-assisted
// registration is not configured.
func NewHandler(
	directory usecase.UserDirectory,
	validate *validator.Validator,
	jwtAuth auth.JWTAuthenticator,
	m Mailer,
	google *provider.GoogleOAuthProvider,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Handler {
	return &Handler{
		directory: directory,
		validate:  validate,
		jwtAuth:   jwtAuth,
		mailer:    m,
		google:    google,
		cfg:       cfg,
		logger:    logger,
	}
}

// Routes builds the portal router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.register)
		if h.google != nil {
			r.Post("/register/google", h.registerGoogle)
		}
		r.Post("/login", h.login)

		r.Route("/password-reset", func(r chi.Router) {
			r.Get("/question", h.securityQuestion)
			r.Post("/request", h.requestPasswordReset)
			r.Post("/confirm", h.confirmPasswordReset)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireJWT(h.jwtAuth, h.cfg.AccessTokenSecret))
			r.Use(middleware.RequireAdmin)

			r.Get("/dashboard", h.dashboard)
			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.listUsers)
				r.Get("/pending", h.listPending)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.getUser)
					r.Put("/", h.updateUser)
					r.Delete("/", h.deleteUser)
					r.Post("/approve", h.approveUser)
				})
			})
		})
	})

	return r
}

// decodeAndValidate decodes the request body into v and validates it,
// writing the error response itself when something is wrong.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httputil.Decode(r, v); err != nil {
		httputil.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return false
	}

	if fields := h.validate.Struct(v); fields != nil {
		httputil.JSON(w, http.StatusUnprocessableEntity, payload.ValidationErrorResponse{
			Code:   "validation_failed",
			Fields: fields,
		})
		return false
	}

	return true
}

// writeDirectoryError renders directory failures. Conflicts become
// field-level messages; unexpected errors are logged and hidden behind a
// generic response.
func (h *Handler) writeDirectoryError(w http.ResponseWriter, op string, err error) {
	conflictField := ""
	switch {
	case errors.Is(err, repository.ErrUsernameTaken):
		conflictField = "username"
	case errors.Is(err, repository.ErrEmailTaken):
		conflictField = "email"
	case errors.Is(err, repository.ErrPhoneTaken):
		conflictField = "phone"
	}
	if conflictField != "" {
		httputil.JSON(w, http.StatusConflict, payload.ValidationErrorResponse{
			Code:   "conflict",
			Fields: map[string]string{conflictField: err.Error()},
		})
		return
	}

	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		httputil.Error(w, http.StatusNotFound, "not_found", "user not found")
	case errors.Is(err, repository.ErrInvalidCredentials):
		httputil.Error(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	case errors.Is(err, repository.ErrUserNotApproved):
		httputil.Error(w, http.StatusForbidden, "pending_approval", "account is pending approval")
	case errors.Is(err, usecase.ErrInvalidResetToken):
		httputil.Error(w, http.StatusBadRequest, "invalid_reset_token", "invalid or expired reset token")
	default:
		h.logger.Error().Err(err).Str("operation", op).Msg("directory operation failed")
		httputil.Error(w, http.StatusInternalServerError, "internal", "something went wrong, please try again")
	}
}
