package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmarkin/bookstore/internal/models"
)

// AdminOnly checks authentication before role: anonymous callers go to
// the login page, logged-in non-admins back to the listing.
func (r *Resolver) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil {
			sess, err := r.Sessions.Start(c)
			if err == nil {
				r.Sessions.Flash(c.Request().Context(), sess, "error", "Please log in first")
			}
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		if user.Role != models.RoleAdmin {
			r.Sessions.Flash(c.Request().Context(), CurrentSession(c), "error", "You don't have enough rights")
			return c.Redirect(http.StatusSeeOther, "/books")
		}
		return next(c)
	}
}
