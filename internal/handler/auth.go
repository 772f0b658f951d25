package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/report-portal/internal/service"
)

// AuthHandler serves registration and login.
//
//	POST /api/register → 201 {"success":true,"token":"…","userId":"…"}
//	POST /api/login    → 200 {"token":"…","userId":"…"}
type AuthHandler struct {
	svc    *service.AuthService
	opts   Options
	logger *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, opts Options, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		opts:   opts,
		logger: logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	UserID  string `json:"userId"`
}

type loginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// credentialsBodyLimit is generous for an email and a password.
const credentialsBodyLimit = 64 << 10

func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	r.Body = http.MaxBytesReader(w, r.Body, credentialsBodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("invalid credentials body", slog.String("error", err.Error()))
		writeError(w, decodeError(err), h.opts.ExposeErrors)
		return req, false
	}
	return req, true
}

// HandleRegister creates an account and logs it in.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logError("register failed", err)
		writeError(w, err, h.opts.ExposeErrors)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Success: true,
		Token:   res.Token,
		UserID:  res.User.ID,
	})
}

// HandleLogin exchanges credentials for a token.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logError("login failed", err)
		writeError(w, err, h.opts.ExposeErrors)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:  res.Token,
		UserID: res.User.ID,
	})
}

func (h *AuthHandler) logError(msg string, err error) {
	if isClientError(err) {
		h.logger.Debug(msg, slog.String("error", err.Error()))
		return
	}
	h.logger.Error(msg, slog.String("error", err.Error()))
}
