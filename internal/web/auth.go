package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/trznica/internal/auth"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/session"
)

type loginPage struct {
	PageData
	StudentID string
	Next      string
}

type registerPage struct {
	PageData
	Form model.Registration
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if session.Identity(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "login.html", &loginPage{
		PageData: s.page(w, r, "Log in"),
		Next:     localPath(r.URL.Query().Get("next"), "/"),
	})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	studentID := r.FormValue("student_id")
	password := r.FormValue("password")
	next := localPath(r.FormValue("next"), "/")

	fail := func(status int, message string) {
		data := &loginPage{PageData: s.page(w, r, "Log in"), StudentID: studentID, Next: next}
		data.Error = message
		s.Templates.RenderStatus(w, status, "login.html", data)
	}

	if studentID == "" || password == "" {
		fail(http.StatusBadRequest, "Enter your student ID and password.")
		return
	}

	user, err := auth.Authenticate(r.Context(), s.DB, studentID, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		slog.Warn("login failed", "student_id", studentID, "remote", r.RemoteAddr)
		fail(http.StatusUnauthorized, "Wrong student ID or password.")
		return
	}
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		fail(http.StatusInternalServerError, "Login failed, please try again.")
		return
	}

	if _, err := s.Sessions.Issue(w, user); err != nil {
		slog.Error("failed to issue session", "error", err)
		fail(http.StatusInternalServerError, "Login failed, please try again.")
		return
	}

	slog.Info("user logged in", "user", user.Name, "role", user.Role)
	redirectWithFlash(w, r, next, false, "Welcome, "+user.Name+".")
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "register.html", &registerPage{PageData: s.page(w, r, "Register")})
}

// RegisterSubmit handles POST /register.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	form := model.Registration{
		FirstName:       r.FormValue("first_name"),
		LastName:        r.FormValue("last_name"),
		StudentID:       r.FormValue("student_id"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
		Major:           r.FormValue("major"),
		Level:           r.FormValue("level"),
	}

	user, err := auth.Register(r.Context(), s.DB, form)
	if err != nil {
		form.Password, form.ConfirmPassword = "", ""
		data := &registerPage{PageData: s.page(w, r, "Register"), Form: form}
		var ve *model.ValidationError
		status := http.StatusBadRequest
		switch {
		case errors.As(err, &ve):
			data.Error = ve.Error()
		case errors.Is(err, auth.ErrStudentIDTaken):
			data.Error = "This student ID is already registered."
			status = http.StatusConflict
		case errors.Is(err, auth.ErrNameTaken):
			data.Error = "Another student already uses this name."
			status = http.StatusConflict
		default:
			slog.Error("failed to register user", "error", err)
			data.Error = "Registration failed, please try again."
			status = http.StatusInternalServerError
		}
		s.Templates.RenderStatus(w, status, "register.html", data)
		return
	}

	slog.Info("user registered", "user", user.Name, "student_id", user.StudentID)
	redirectWithFlash(w, r, "/login", false, "Registration complete. You can log in now.")
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if id := session.Identity(r.Context()); id != nil {
		slog.Info("user logged out", "user", id.Name)
	}
	s.Sessions.Clear(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
