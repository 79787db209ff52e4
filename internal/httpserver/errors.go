package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmarkin/bookstore/internal/logging"
)

// ErrorHandler renders the not-found page for unmatched routes and a
// generic error page for everything else. The status comes from the
// *echo.HTTPError when there is one, else 500; internal detail stays in
// the logs.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			message = s
		}
	}

	logging.FromContext(c.Request().Context()).Error("request failed",
		"status", code, "path", c.Request().URL.Path, "error", err)

	data := map[string]any{
		"Title":     "Error",
		"User":      nil,
		"Flash":     "",
		"FlashKind": "",
		"Message":   message,
	}

	page := "error.html"
	if code == http.StatusNotFound {
		page = "notfound.html"
	}

	if rerr := c.Render(code, page, data); rerr != nil {
		// rendering itself broke; fall back to plain text
		_ = c.String(code, message)
	}
}
