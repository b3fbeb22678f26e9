package handler

import (
	"net/http"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/payload"
	"github.com/vasapolrittideah/member-portal-api/shared/httputil"
)

func (h *Handler) securityQuestion(w http.ResponseWriter, r *http.Request) {
	login := r.URL.Query().Get("login")
	if login == "" {
		httputil.Error(w, http.StatusBadRequest, "bad_request", "login is required")
		return
	}

	question, err := h.directory.SecurityQuestion(r.Context(), login)
	if err != nil {
		h.writeDirectoryError(w, "security_question", err)
		return
	}

	httputil.JSON(w, http.StatusOK, payload.SecurityQuestionResponse{Question: question})
}

func (h *Handler) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req payload.PasswordResetRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	token, err := h.directory.BeginPasswordReset(r.Context(), req.Login, req.SecurityAnswer)
	if err != nil {
		h.writeDirectoryError(w, "password_reset_request", err)
		return
	}

	httputil.JSON(w, http.StatusOK, payload.PasswordResetResponse{ResetToken: token})
}

func (h *Handler) confirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req payload.PasswordResetConfirmRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.directory.CompletePasswordReset(r.Context(), req.ResetToken, req.NewPassword); err != nil {
		h.writeDirectoryError(w, "password_reset_confirm", err)
		return
	}

	httputil.JSON(w, http.StatusNoContent, nil)
}
