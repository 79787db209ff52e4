package auth

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/dmarkin/bookstore/internal/logging"
	"github.com/dmarkin/bookstore/internal/models"
	"github.com/dmarkin/bookstore/internal/repo"
	"github.com/dmarkin/bookstore/internal/session"
)

const (
	sessionKey = "session"
	userKey    = "user"
)

// Resolver populates the request context once per request: the current
// session (if the cookie resolves) and the account bound to it. Gates and
// handlers read both through CurrentSession/CurrentUser.
type Resolver struct {
	Sessions *session.Manager
	Repo     *repo.GormRepo
}

func (r *Resolver) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		sess, err := r.Sessions.Current(c)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				logging.FromContext(ctx).Error("session lookup failed", "error", err)
			}
			return next(c)
		}
		c.Set(sessionKey, sess)

		if sess.UserID != 0 {
			user, err := r.Repo.UserByID(ctx, sess.UserID)
			if err != nil {
				logging.FromContext(ctx).Warn("session user lookup failed", "user_id", sess.UserID, "error", err)
			} else {
				c.Set(userKey, user)
			}
		}
		return next(c)
	}
}

func CurrentSession(c echo.Context) *models.Session {
	if s, ok := c.Get(sessionKey).(*models.Session); ok {
		return s
	}
	return nil
}

func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get(userKey).(*models.User); ok {
		return u
	}
	return nil
}
