package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireLogin redirects anonymous requests to the login page with a
// one-shot notice.
func (r *Resolver) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) != nil {
			return next(c)
		}
		sess, err := r.Sessions.Start(c)
		if err == nil {
			r.Sessions.Flash(c.Request().Context(), sess, "error", "Please log in first")
		}
		return c.Redirect(http.StatusSeeOther, "/login")
	}
}
