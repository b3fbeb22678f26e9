package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/model"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/payload"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/repository"
	"github.com/vasapolrittideah/member-portal-api/shared/httputil"
)

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.directory.DashboardStats(r.Context())
	if err != nil {
		h.writeDirectoryError(w, "dashboard", err)
		return
	}

	httputil.JSON(w, http.StatusOK, stats)
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

	users, err := h.directory.ListAll(r.Context(), params)
	if err != nil {
		h.writeDirectoryError(w, "list_users", err)
		return
	}

	httputil.JSON(w, http.StatusOK, users)
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.ListPending(r.Context())
	if err != nil {
		h.writeDirectoryError(w, "list_pending", err)
		return
	}

	httputil.JSON(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	user, err := h.directory.GetByID(r.Context(), id, true)
	if err != nil {
		h.writeDirectoryError(w, "get_user", err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	var req payload.UpdateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user := &model.User{
		ID:               id,
		Username:         req.Username,
		Email:            req.Email,
		Phone:            req.Phone,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		DateOfBirth:      req.DateOfBirth,
		SecurityQuestion: req.SecurityQuestion,
		Admin:            req.Admin,
		Approved:         req.Approved,
		Active:           req.Active,
	}

	updated, err := h.directory.Update(r.Context(), user)
	if err != nil {
		h.writeDirectoryError(w, "update_user", err)
		return
	}

	httputil.JSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	if err := h.directory.Delete(r.Context(), id); err != nil {
		h.writeDirectoryError(w, "delete_user", err)
		return
	}

	httputil.JSON(w, http.StatusNoContent, nil)
}

func (h *Handler) approveUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	if err := h.directory.Approve(r.Context(), id); err != nil {
		h.writeDirectoryError(w, "approve_user", err)
		return
	}

	httputil.JSON(w, http.StatusNoContent, nil)
}

func (h *Handler) parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "bad_request", "invalid user id")
		return 0, false
	}

	return id, true
}
