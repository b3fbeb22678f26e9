// Package apiserver exposes the canonical user store over HTTP: the surface
// the registry service's remote backend calls. Conflict kinds travel as
// structured codes, never as message text.
package apiserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/model"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/repository"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/pkg/userapi"
	"github.com/vasapolrittideah/member-portal-api/shared/auth"
	"github.com/vasapolrittideah/member-portal-api/shared/httputil"
	"github.com/vasapolrittideah/member-portal-api/shared/middleware"
)

// Handler serves the user API on top of the direct backend.
type Handler struct {
	backend repository.UserBackend
	logger  *zerolog.Logger
}

// NewHandler creates a Handler.
func NewHandler(backend repository.UserBackend, logger *zerolog.Logger) *Handler {
	return &Handler{backend: backend, logger: logger}
}

// Routes builds the chi router, guarded by the service token middleware.
func (h *Handler) Routes(jwtAuth auth.JWTAuthenticator, secret string) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequireJWT(jwtAuth, secret))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/stats", h.stats)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.createUser)
			r.Get("/", h.listUsers)
			r.Post("/authenticate", h.authenticate)
			r.Post("/verify-answer", h.verifyAnswer)
			r.Get("/lookup", h.lookupUser)
			r.Get("/unique", h.isUnique)
			r.Get("/pending", h.listPending)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getUser)
				r.Put("/", h.updateUser)
				r.Delete("/", h.deleteUser)
				r.Put("/password", h.updatePassword)
				r.Post("/approve", h.approveUser)
			})
		})
	})

	return r
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req userapi.CreateUserRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, userapi.CodeInternal, err.Error())
		return
	}

	user := req.User.ToModel()
	user.SecurityAnswerHash = req.SecurityAnswerHash

	created, err := h.backend.CreateUser(r.Context(), user, req.Password)
	if err != nil {
		h.writeBackendError(w, r, "create_user", err)
		return
	}

	httputil.JSON(w, http.StatusCreated, userapi.FromModel(created))
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) {
	var req userapi.AuthenticateRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, userapi.CodeInternal, err.Error())
		return
	}

	user, err := h.backend.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		h.writeBackendError(w, r, "authenticate", err)
		return
	}

	httputil.JSON(w, http.StatusOK, userapi.FromModel(user))
}

func (h *Handler) verifyAnswer(w http.ResponseWriter, r *http.Request) {
	var req userapi.VerifyAnswerRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, userapi.CodeInternal, err.Error())
		return
	}

	user, err := h.backend.VerifySecurityAnswer(r.Context(), req.Login, req.Answer)
	if err != nil {
		h.writeBackendError(w, r, "verify_answer", err)
		return
	}

	httputil.JSON(w, http.StatusOK, userapi.FromModel(user))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, userapi.CodeInternal, "invalid user id")
		return
	}

	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	user, err := h.backend.GetUser(r.Context(), id, includeInactive)
	if err != nil {
		h.writeBackendError(w, r, "get_user", err)
		return
	}

	httputil.JSON(w, http.StatusOK, userapi.FromModel(user))
}

func (h *Handler) lookupUser(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var user *model.User
	var err error
	switch {
	case query.Get("username") != "":
		user, err = h.backend.GetUserByUsername(r.Context(), query.Get("username"))
	case query.Get("email") != "":
		user, err = h.backend.GetUserByEmail(r.Context(), query.Get("email"))
	case query.Get("phone") != "":
		user, err = h.backend.GetUserByPhone(r.Context(), query.Get("phone"))
	default:
		httputil.Error(w, http.StatusBadRequest, userapi.CodeInternal, "username, email, or phone is required")
		return
	}
	if err != nil {
		h.writeBackendError(w, r, "lookup_user", err)
		return
	}

	httputil.JSON(w, http.StatusOK, userapi.FromModel(user))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, userapi.CodeInternal, "invalid user id")
		return
	}

	var req userapi.UpdateUserRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, userapi.CodeInternal, err.Error())
		return
	}

	user := req.User.ToModel()
	user.ID = id

	updated, err := h.backend.UpdateUser(r.Context(), user)
	if err != nil {
		h.writeBackendError(w, r, "update_user", err)
		return
	}

	httputil.JSON(w, http.StatusOK, userapi.FromModel(updated))
}

func (h *Handler) updatePassword(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, userapi.CodeInternal, "invalid user id")
		return
	}

	var req userapi.UpdatePasswordRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, userapi.CodeInternal, err.Error())
		return
	}

	if err := h.backend.UpdatePassword(r.Context(), id, req.Password); err != nil {
		h.writeBackendError(w, r, "update_password", err)
		return
	}

	httputil.JSON(w, http.StatusNoContent, nil)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, userapi.CodeInternal, "invalid user id")
		return
	}

	if err := h.backend.DeleteUser(r.Context(), id); err != nil {
		h.writeBackendError(w, r, "delete_user", err)
		return
	}

	httputil.JSON(w, http.StatusNoContent, nil)
}

func (h *Handler) approveUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, userapi.CodeInternal, "invalid user id")
		return
	}

	if err := h.backend.ApproveUser(r.Context(), id); err != nil {
		h.writeBackendError(w, r, "approve_user", err)
		return
	}

	httputil.JSON(w, http.StatusNoContent, nil)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := repository.FilterUsersParams{Search: query.Get("q")}
	if active := query.Get("active"); active != "" {
		value := active == "true"
		params.Active = &value
	}
	if limit, err := strconv.ParseInt(query.Get("limit"), 10, 64); err == nil {
		params.Limit = limit
	}
	if offset, err := strconv.ParseInt(query.Get("offset"), 10, 64); err == nil {
		params.Offset = offset
	}

	users, err := h.backend.ListUsers(r.Context(), params)
	if err != nil {
		h.writeBackendError(w, r, "list_users", err)
		return
	}

	httputil.JSON(w, http.StatusOK, toWireList(users))
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	users, err := h.backend.ListPendingUsers(r.Context())
	if err != nil {
		h.writeBackendError(w, r, "list_pending", err)
		return
	}

	httputil.JSON(w, http.StatusOK, toWireList(users))
}

func (h *Handler) isUnique(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	field := repository.UniqueField(query.Get("field"))
	switch field {
	case repository.FieldUsername, repository.FieldEmail, repository.FieldPhone:
	default:
		httputil.Error(w, http.StatusBadRequest, userapi.CodeInternal, "unknown uniqueness field")
		return
	}

	var excludeID int64
	if raw := query.Get("exclude_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, userapi.CodeInternal, "invalid exclude_id")
			return
		}
		excludeID = parsed
	}

	unique, err := h.backend.IsUnique(r.Context(), field, query.Get("value"), excludeID)
	if err != nil {
		h.writeBackendError(w, r, "is_unique", err)
		return
	}

	httputil.JSON(w, http.StatusOK, userapi.UniqueResponse{Unique: unique})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.backend.DashboardStats(r.Context())
	if err != nil {
		h.writeBackendError(w, r, "stats", err)
		return
	}

	httputil.JSON(w, http.StatusOK, userapi.StatsResponse{
		Total:    stats.Total,
		Active:   stats.Active,
		Pending:  stats.Pending,
		Admins:   stats.Admins,
		Inactive: stats.Inactive,
	})
}

// writeBackendError maps backend sentinels onto status codes and structured
// error codes. Unexpected errors are logged with the operation name and hidden
// behind a generic response.
func (h *Handler) writeBackendError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrUsernameTaken):
		httputil.Error(w, http.StatusConflict, userapi.CodeUsernameTaken, "")
	case errors.Is(err, repository.ErrEmailTaken):
		httputil.Error(w, http.StatusConflict, userapi.CodeEmailTaken, "")
	case errors.Is(err, repository.ErrPhoneTaken):
		httputil.Error(w, http.StatusConflict, userapi.CodePhoneTaken, "")
	case errors.Is(err, repository.ErrUserNotFound):
		httputil.Error(w, http.StatusNotFound, userapi.CodeNotFound, "")
	case errors.Is(err, repository.ErrInvalidCredentials):
		httputil.Error(w, http.StatusUnauthorized, userapi.CodeInvalidCredentials, "")
	case errors.Is(err, repository.ErrUserNotApproved):
		httputil.Error(w, http.StatusForbidden, userapi.CodeNotApproved, "")
	default:
		h.logger.Error().Err(err).Str("operation", op).Msg("user api operation failed")
		httputil.Error(w, http.StatusInternalServerError, userapi.CodeInternal, "something went wrong")
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func toWireList(users []*model.User) []userapi.User {
	out := make([]userapi.User, 0, len(users))
	for _, user := range users {
		out = append(out, userapi.FromModel(user))
	}
	return out
}
