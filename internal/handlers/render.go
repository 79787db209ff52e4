package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmarkin/bookstore/internal/events"
	"github.com/dmarkin/bookstore/internal/logging"
	authmw "github.com/dmarkin/bookstore/internal/middleware/auth"
	"github.com/dmarkin/bookstore/internal/session"
)

// render executes a page template with the ambient keys every view
// expects: Title, User and the popped one-shot flash.
func render(c echo.Context, sessions *session.Manager, name, title string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	data["Title"] = title

	var kind, flash string
	if sess := authmw.CurrentSession(c); sess != nil {
		kind, flash = sessions.PopFlash(c.Request().Context(), sess)
	}
	data["Flash"] = flash
	data["FlashKind"] = kind

	if _, ok := data["User"]; !ok {
		if u := authmw.CurrentUser(c); u != nil {
			data["User"] = u
		} else {
			data["User"] = nil
		}
	}
	return c.Render(http.StatusOK, name, data)
}

// flashRedirect stores a one-shot notice and redirects, starting a
// session first when the request has none yet.
func flashRedirect(c echo.Context, sessions *session.Manager, kind, message, target string) error {
	sess, err := sessions.Start(c)
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("cannot start session for flash", "error", err)
	} else {
		sessions.Flash(c.Request().Context(), sess, kind, message)
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// publish sends a domain event best-effort: failures are logged and never
// fail the request.
func publish(c echo.Context, p *events.Producer, topic, key string, event map[string]any) {
	ctx := c.Request().Context()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", topic, "error", err)
	}
}

func itoa(v uint) string {
	return fmt.Sprint(v)
}
