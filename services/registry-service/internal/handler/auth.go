package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/model"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/payload"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/pkg/types"
	"github.com/vasapolrittideah/member-portal-api/shared/httputil"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user := &model.User{
		Username:         req.Username,
		Email:            req.Email,
		Phone:            req.Phone,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		DateOfBirth:      req.DateOfBirth,
		SecurityQuestion: req.SecurityQuestion,
	}

	created, err := h.directory.Create(r.Context(), user, req.Password, req.SecurityAnswer)
	if err != nil {
		h.writeDirectoryError(w, "register", err)
		return
	}

	h.sendRegistrationEmail(created)

	httputil.JSON(w, http.StatusCreated, payload.RegisterResponse{User: created})
}

func (h *Handler) registerGoogle(w http.ResponseWriter, r *http.Request) {
	var req payload.GoogleRegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	identity, err := h.google.ValidateIDToken(r.Context(), req.IDToken)
	if err != nil {
		h.logger.Warn().Err(err).Msg("google id token rejected")
		httputil.Error(w, http.StatusUnauthorized, "invalid_id_token", "google sign-in could not be verified")
		return
	}

	user := &model.User{
		Username:         req.Username,
		Email:            identity.Email,
		Phone:            req.Phone,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		DateOfBirth:      req.DateOfBirth,
		SecurityQuestion: req.SecurityQuestion,
	}

	created, err := h.directory.Create(r.Context(), user, req.Password, req.SecurityAnswer)
	if err != nil {
		h.writeDirectoryError(w, "register_google", err)
		return
	}

	h.sendRegistrationEmail(created)

	httputil.JSON(w, http.StatusCreated, payload.RegisterResponse{User: created})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.directory.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		h.writeDirectoryError(w, "login", err)
		return
	}

	token, err := h.generateAccessToken(user)
	if err != nil {
		h.writeDirectoryError(w, "login", err)
		return
	}

	httputil.JSON(w, http.StatusOK, payload.LoginResponse{
		AccessToken: token,
		User:        user,
	})
}

func (h *Handler) generateAccessToken(user *model.User) (string, error) {
	now := time.Now()
	claims := types.AccessClaims{
		UserID:   user.ID,
		Username: user.Username,
		Admin:    user.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    h.cfg.TokenIssuer,
			Audience:  jwt.ClaimStrings{h.cfg.TokenIssuer},
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.cfg.AccessTokenTTL)),
		},
	}

	return h.jwtAuth.GenerateToken(claims, h.cfg.AccessTokenSecret)
}

// sendRegistrationEmail is best-effort: a mail failure never fails the
// registration.
func (h *Handler) sendRegistrationEmail(user *model.User) {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Thank you for registering. Your account is waiting for administrator
		approval; we will let you know once it has been reviewed.</p>

		<p>Thank you,</p>
		<p>The Member Portal Team</p>
	`, user.FirstName)

	if err := h.mailer.SendHTML([]string{user.Email}, "Registration received", body); err != nil {
		h.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to send registration email")
	}
}
