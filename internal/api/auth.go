package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/trznica/internal/auth"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/session"
	"github.com/erazemk/trznica/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB       *sql.DB
	Sessions *session.Manager
}

type loginRequest struct {
	StudentID string `json:"student_id"`
	Password  string `json:"password"`
}

type loginResponse struct {
	Token    string          `json:"token"`
	Identity *model.Identity `json:"identity"`
}

type sessionResponse struct {
	Identity *model.Identity `json:"identity"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.StudentID = strings.TrimSpace(req.StudentID)
	if req.StudentID == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "student_id and password required")
		return
	}

	user, err := auth.Authenticate(r.Context(), h.DB, req.StudentID, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		slog.Warn("login failed", "student_id", req.StudentID, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := h.Sessions.Issue(w, user)
	if err != nil {
		slog.Error("failed to issue session", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user", user.Name, "role", user.Role)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, Identity: user.Identity()})
}

// Register handles POST /api/auth/register. New accounts are students.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.Registration
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := auth.Register(r.Context(), h.DB, req)
	if err != nil {
		var ve *model.ValidationError
		switch {
		case errors.As(err, &ve):
			validationError(w, ve)
		case errors.Is(err, auth.ErrStudentIDTaken), errors.Is(err, auth.ErrNameTaken):
			jsonError(w, http.StatusConflict, err.Error())
		default:
			slog.Error("failed to register user", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to register")
		}
		return
	}

	slog.Info("user registered", "user", user.Name, "student_id", user.StudentID)
	jsonResponse(w, http.StatusCreated, user)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	h.Sessions.Clear(w, r)
	if claims != nil {
		slog.Info("user logged out", "user", claims.Name)
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Session handles GET /api/session. Without a session the identity is null.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, sessionResponse{Identity: session.Identity(r.Context())})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		jsonError(w, http.StatusBadRequest, "current and new password required")
		return
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil || user == nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, claims.UserID, hash); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	slog.Info("user changed own password", "user", claims.Name)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
