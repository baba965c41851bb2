package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/trznica/internal/auth"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/session"
	"github.com/erazemk/trznica/internal/store"
)

const usersPath = "/admin/users"

type usersPage struct {
	PageData
	Users []model.User
	Roles []string
}

// UsersPage handles GET /admin/users.
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	data := &usersPage{
		PageData: s.page(w, r, "Users"),
		Roles:    []string{model.RoleStudent, model.RoleAdmin},
	}
	users, err := store.ListUsers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		data.Error = "Users could not be loaded."
	}
	data.Users = users
	s.Templates.Render(w, "users.html", data)
}

// targetUser parses {id} and loads the active user, or redirects back with a
// message and returns nil.
func (s *Server) targetUser(w http.ResponseWriter, r *http.Request) *model.User {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		redirectWithFlash(w, r, usersPath, true, "Invalid user.")
		return nil
	}
	user, err := store.GetUser(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get user", "error", err)
	}
	if user == nil || user.DeletedAt != nil {
		redirectWithFlash(w, r, usersPath, true, "User not found.")
		return nil
	}
	return user
}

// UserResetPasswordSubmit handles POST /admin/users/{id}/password.
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	user := s.targetUser(w, r)
	if user == nil {
		return
	}

	newPassword := r.FormValue("new_password")
	if err := model.ValidatePassword(newPassword); err != nil {
		redirectWithFlash(w, r, usersPath, true, err.Error())
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err == nil {
		err = store.UpdateUserPassword(r.Context(), s.DB, user.ID, hash)
	}
	if err != nil {
		slog.Error("failed to reset password", "error", err)
		redirectWithFlash(w, r, usersPath, true, "The password could not be reset.")
		return
	}

	slog.Info("user password reset", "user", session.Identity(r.Context()).Name, "target_user", user.Name)
	redirectWithFlash(w, r, usersPath, false, "Password reset for "+user.Name+".")
}

// UserUpdateRoleSubmit handles POST /admin/users/{id}/role.
func (s *Server) UserUpdateRoleSubmit(w http.ResponseWriter, r *http.Request) {
	user := s.targetUser(w, r)
	if user == nil {
		return
	}

	role := r.FormValue("role")
	if role != model.RoleAdmin && role != model.RoleStudent {
		redirectWithFlash(w, r, usersPath, true, "Unknown role.")
		return
	}
	if claims := session.Claims(r.Context()); claims.UserID == user.ID {
		redirectWithFlash(w, r, usersPath, true, "You cannot change your own role.")
		return
	}

	if err := store.UpdateUser(r.Context(), s.DB, user.ID, role); err != nil {
		slog.Error("failed to update user", "error", err)
		redirectWithFlash(w, r, usersPath, true, "The role could not be changed.")
		return
	}

	slog.Info("user role updated", "user", session.Identity(r.Context()).Name, "target_user", user.Name, "new_role", role)
	redirectWithFlash(w, r, usersPath, false, "Role updated for "+user.Name+".")
}

// UserDeleteSubmit handles POST /admin/users/{id}/delete. Like listings, it
// needs a second confirming request.
func (s *Server) UserDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	user := s.targetUser(w, r)
	if user == nil {
		return
	}

	claims := session.Claims(r.Context())
	if claims.UserID == user.ID {
		redirectWithFlash(w, r, usersPath, true, "You cannot delete yourself.")
		return
	}
	if !s.Confirm.Confirm(claims.Name + "|delete-user|" + strconv.FormatInt(user.ID, 10)) {
		redirectWithFlash(w, r, usersPath, true, "Press delete again within "+s.Confirm.Window.String()+" to confirm.")
		return
	}

	if err := store.DeleteUser(r.Context(), s.DB, user.ID); err != nil {
		slog.Error("failed to delete user", "error", err)
		redirectWithFlash(w, r, usersPath, true, "The user could not be deleted.")
		return
	}

	slog.Info("user deleted", "user", claims.Name, "deleted_user", user.Name)
	redirectWithFlash(w, r, usersPath, false, user.Name+" was deleted.")
}

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "settings.html", &struct{ PageData }{s.page(w, r, "Settings")})
}

// SettingsSubmit handles POST /settings (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	claims := session.Claims(r.Context())
	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	fail := func(message string) {
		redirectWithFlash(w, r, "/settings", true, message)
	}

	if currentPassword == "" || newPassword == "" {
		fail("Enter your current and new password.")
		return
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		fail(err.Error())
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		fail("Your account could not be loaded.")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, currentPassword) {
		fail("The current password is incorrect.")
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err == nil {
		err = store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, hash)
	}
	if err != nil {
		slog.Error("failed to update password", "error", err)
		fail("The password could not be saved.")
		return
	}

	slog.Info("user changed own password", "user", claims.Name)
	redirectWithFlash(w, r, "/settings", false, "Password changed.")
}
