package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dmarkin/bookstore/internal/logging"
	"github.com/dmarkin/bookstore/internal/mailer"
	"github.com/dmarkin/bookstore/internal/repo"
	"github.com/dmarkin/bookstore/internal/session"
)

type PageHandler struct {
	Repo     *repo.GormRepo
	Sessions *session.Manager
	Mailer   *mailer.Mailer
}

func (h *PageHandler) Home(c echo.Context) error {
	return render(c, h.Sessions, "home.html", "Home", nil)
}

func (h *PageHandler) About(c echo.Context) error {
	return render(c, h.Sessions, "about.html", "About", nil)
}

func (h *PageHandler) ContactPage(c echo.Context) error {
	return render(c, h.Sessions, "contact.html", "Contact", nil)
}

// Contact mails the form to the fixed recipient and always redirects back
// with a success or failure notice.
func (h *PageHandler) Contact(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contact")

	name := strings.TrimSpace(c.FormValue("name"))
	email := strings.TrimSpace(c.FormValue("email"))
	subject := strings.TrimSpace(c.FormValue("subject"))
	message := c.FormValue("message")

	if name == "" || email == "" || subject == "" || message == "" {
		return flashRedirect(c, h.Sessions, "error", "All fields are required", "/contact")
	}

	if err := h.Mailer.Send(name, email, subject, message); err != nil {
		l.Error("contact_mail_failed", "error", err)
		return flashRedirect(c, h.Sessions, "error", "Could not send your message, please try again later", "/contact")
	}

	l.Info("contact_mail_sent")
	return flashRedirect(c, h.Sessions, "success", "Thanks, we'll get back to you!", "/contact")
}

// Dashboard aggregates accounts, books and orders with their line items.
func (h *PageHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.Repo.Users(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("cannot load users", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load dashboard")
	}
	books, err := h.Repo.Books(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("cannot load books", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load dashboard")
	}
	orders, err := h.Repo.Orders(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("cannot load orders", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load dashboard")
	}

	return render(c, h.Sessions, "dashboard.html", "Dashboard", map[string]any{
		"Users":  users,
		"Books":  books,
		"Orders": orders,
	})
}
