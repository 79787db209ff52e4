package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dmarkin/bookstore/internal/logging"
	"github.com/dmarkin/bookstore/internal/models"
)

const (
	CookieName = "session"
	TTL        = 7 * 24 * time.Hour

	// contextKey caches the session on the echo.Context once resolved or
	// created. Without it a second Start in the same request would miss the
	// session minted by the first (its cookie is on the response, not the
	// request) and mint another one, leaving the browser with the cookie of
	// an anonymous session.
	contextKey = "session"
)

// ErrNoSession is returned when the request carries no usable session
// cookie: missing, unparsable, expired or pointing at a deleted row.
var ErrNoSession = errors.New("no active session")

// Manager owns session rows and the signed cookie that references them.
// The cookie value is an HS256 token carrying only the session id; all
// state (user binding, flash, cart rows) stays server-side.
type Manager struct {
	DB     *gorm.DB
	Secret []byte
}

func CreateCookie(name, value, path string, expTime time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expTime,
		MaxAge:   int(time.Until(expTime).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Current resolves the request's session or reports ErrNoSession. Expired
// rows are treated as absent.
func (m *Manager) Current(c echo.Context) (*models.Session, error) {
	if cached, ok := c.Get(contextKey).(*models.Session); ok && cached != nil {
		return cached, nil
	}

	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	sid, err := m.parseToken(cookie.Value)
	if err != nil {
		return nil, ErrNoSession
	}

	var sess models.Session
	if err := m.DB.WithContext(c.Request().Context()).Where("id = ?", sid).First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	if time.Now().Unix() > sess.ExpiresAt {
		return nil, ErrNoSession
	}
	c.Set(contextKey, &sess)
	return &sess, nil
}

// Start returns the current session, creating one and setting the cookie
// when the request has none yet.
func (m *Manager) Start(c echo.Context) (*models.Session, error) {
	sess, err := m.Current(c)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrNoSession) {
		return nil, err
	}

	exp := time.Now().Add(TTL)
	sess = &models.Session{
		ID:        uuid.NewString(),
		ExpiresAt: exp.Unix(),
	}
	if err := m.DB.WithContext(c.Request().Context()).Create(sess).Error; err != nil {
		return nil, err
	}

	token, err := m.signToken(sess.ID, exp)
	if err != nil {
		return nil, err
	}
	c.SetCookie(CreateCookie(CookieName, token, "/", exp))
	c.Set(contextKey, sess)
	return sess, nil
}

// Bind attaches an authenticated user to the session.
func (m *Manager) Bind(ctx context.Context, sess *models.Session, userID uint) error {
	sess.UserID = userID
	return m.DB.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", sess.ID).
		Update("user_id", userID).Error
}

// Destroy removes the session row together with its cart and expires the
// cookie. Destroying an absent session is not an error.
func (m *Manager) Destroy(c echo.Context, sess *models.Session) error {
	ctx := c.Request().Context()
	if sess != nil {
		if err := m.DB.WithContext(ctx).Where("session_id = ?", sess.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := m.DB.WithContext(ctx).Delete(&models.Session{}, "id = ?", sess.ID).Error; err != nil {
			return err
		}
	}
	c.SetCookie(CreateCookie(CookieName, "", "/", time.Now().Add(-time.Hour)))
	c.Set(contextKey, nil)
	return nil
}

// Flash stores a one-shot notice on the session; the next render pops it.
func (m *Manager) Flash(ctx context.Context, sess *models.Session, kind, message string) {
	if sess == nil {
		return
	}
	sess.Flash = message
	sess.FlashKind = kind
	if err := m.DB.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", sess.ID).
		Updates(map[string]any{"flash": message, "flash_kind": kind}).Error; err != nil {
		logging.FromContext(ctx).Error("flash update failed", "session_id", sess.ID, "error", err)
	}
}

// PopFlash returns the pending notice and clears it.
func (m *Manager) PopFlash(ctx context.Context, sess *models.Session) (kind, message string) {
	if sess == nil || sess.Flash == "" {
		return "", ""
	}
	kind, message = sess.FlashKind, sess.Flash
	if err := m.DB.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", sess.ID).
		Updates(map[string]any{"flash": "", "flash_kind": ""}).Error; err != nil {
		logging.FromContext(ctx).Error("flash clear failed", "session_id", sess.ID, "error", err)
	}
	sess.Flash = ""
	sess.FlashKind = ""
	return kind, message
}

func (m *Manager) signToken(sid string, exp time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sid": sid,
		"exp": exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.Secret)
}

func (m *Manager) parseToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.Secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid session token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("cannot parse claims")
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("missing sid claim")
	}
	return sid, nil
}
