package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dmarkin/bookstore/internal/events"
	"github.com/dmarkin/bookstore/internal/hash"
	"github.com/dmarkin/bookstore/internal/logging"
	authmw "github.com/dmarkin/bookstore/internal/middleware/auth"
	"github.com/dmarkin/bookstore/internal/models"
	"github.com/dmarkin/bookstore/internal/repo"
	"github.com/dmarkin/bookstore/internal/session"
)

type AuthHandler struct {
	Repo           *repo.GormRepo
	Sessions       *session.Manager
	Producer       *events.Producer
	AdminAllowlist []string
}

func (h *AuthHandler) RegisterPage(c echo.Context) error {
	return render(c, h.Sessions, "register.html", "Register", nil)
}

func (h *AuthHandler) LoginPage(c echo.Context) error {
	return render(c, h.Sessions, "login.html", "Login", nil)
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	username := strings.TrimSpace(c.FormValue("username"))
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")

	if username == "" || email == "" || password == "" {
		return flashRedirect(c, h.Sessions, "error", "All fields are required", "/register")
	}

	if _, err := h.Repo.UserByUsernameOrEmail(ctx, username, email); err == nil {
		l.Warn("register_failed", "reason", "user_exists")
		return flashRedirect(c, h.Sessions, "error", "Username or email already taken", "/register")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("register_failed", "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash the password", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         h.roleFor(username, email),
	}
	if err := h.Repo.CreateUser(ctx, &user); err != nil {
		// uniqueness is enforced by the store, so a concurrent registration
		// lands here rather than above
		l.Error("register_failed", "reason", "db_error", "error", err)
		return flashRedirect(c, h.Sessions, "error", "Username or email already taken", "/register")
	}

	sess, err := h.Sessions.Start(c)
	if err == nil {
		err = h.Sessions.Bind(ctx, sess, user.ID)
	}
	if err != nil {
		l.Error("register_session_failed", "error", err)
		return flashRedirect(c, h.Sessions, "success", "Account created, please log in", "/login")
	}

	publish(c, h.Producer, "user_events", itoa(user.ID), map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
		"role":     user.Role,
	})

	l.Info("register_success", "user_id", user.ID, "role", user.Role)
	return flashRedirect(c, h.Sessions, "success", "Welcome, "+user.Username+"!", "/")
}

// roleFor decides the role exactly once, at creation: allow-list entries
// match the username or the email. Never re-evaluated afterwards.
func (h *AuthHandler) roleFor(username, email string) string {
	for _, entry := range h.AdminAllowlist {
		if strings.EqualFold(entry, username) || strings.EqualFold(entry, email) {
			return models.RoleAdmin
		}
	}
	return models.RoleUser
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	user, err := h.Repo.UserByUsername(ctx, username)
	if err != nil || !hash.CheckPassword(user.PasswordHash, password) {
		// same message either way: no account/credential distinction leaks
		l.Warn("login_failed", "reason", "invalid username or password")
		return flashRedirect(c, h.Sessions, "error", "Invalid username or password", "/login")
	}

	sess, err := h.Sessions.Start(c)
	if err == nil {
		err = h.Sessions.Bind(ctx, sess, user.ID)
	}
	if err != nil {
		l.Error("login_session_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "user_events", itoa(user.ID), map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	l.Info("login_success", "user_id", user.ID)
	return flashRedirect(c, h.Sessions, "success", "Logged in", "/books")
}

// Logout always reports success, even when no session was active.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if err := h.Sessions.Destroy(c, authmw.CurrentSession(c)); err != nil {
		l.Error("logout_destroy_failed", "error", err)
	}
	c.Set("session", nil)
	c.Set("user", nil)

	l.Info("logout_success")
	return flashRedirect(c, h.Sessions, "success", "You have been logged out", "/")
}
