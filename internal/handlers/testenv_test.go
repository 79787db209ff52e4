package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dmarkin/bookstore/internal/hash"
	"github.com/dmarkin/bookstore/internal/models"
	"github.com/dmarkin/bookstore/internal/repo"
	"github.com/dmarkin/bookstore/internal/session"
	"github.com/dmarkin/bookstore/internal/view"
)

type testEnv struct {
	T        *testing.T
	E        *echo.Echo
	DB       *gorm.DB
	Repo     *repo.GormRepo
	Sessions *session.Manager
	Auth     *AuthHandler
	Books    *BookHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Session{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	))

	e := echo.New()
	renderer, err := view.New()
	require.NoError(t, err)
	e.Renderer = renderer

	r := repo.New(db)
	sessions := &session.Manager{DB: db, Secret: []byte("test-secret")}

	return &testEnv{
		T:        t,
		E:        e,
		DB:       db,
		Repo:     r,
		Sessions: sessions,
		Auth:     &AuthHandler{Repo: r, Sessions: sessions, AdminAllowlist: []string{"boss", "boss@shop.test"}},
		Books:    &BookHandler{Repo: r, Sessions: sessions},
		Cart:     &CartHandler{Repo: r, Sessions: sessions},
		Checkout: &CheckoutHandler{Repo: r, Sessions: sessions},
	}
}

func (env *testEnv) formRequest(method, target string, form url.Values, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return rec, env.E.NewContext(req, rec)
}

// startSession creates a server-side session (optionally bound to a user)
// and returns it with the cookie a browser would carry afterwards.
func (env *testEnv) startSession(userID uint) (*models.Session, *http.Cookie) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)

	sess, err := env.Sessions.Start(c)
	require.NoError(env.T, err)
	if userID != 0 {
		require.NoError(env.T, env.Sessions.Bind(context.Background(), sess, userID))
		sess.UserID = userID
	}

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName {
			return sess, ck
		}
	}
	env.T.Fatal("no session cookie set")
	return nil, nil
}

// multipartRequest builds a form with an attached file, the shape the book
// create/update forms post.
func (env *testEnv) multipartRequest(method, target string, fields map[string]string, fileField, fileName string, file []byte) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(env.T, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile(fileField, fileName)
	require.NoError(env.T, err)
	_, err = fw.Write(file)
	require.NoError(env.T, err)
	require.NoError(env.T, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	return rec, env.E.NewContext(req, rec)
}

// resolveLastCookie replays the last session cookie a response set, the
// way a browser would, and returns the session it points at.
func (env *testEnv) resolveLastCookie(rec *httptest.ResponseRecorder) *models.Session {
	var last *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName {
			last = ck
		}
	}
	require.NotNil(env.T, last, "no session cookie set")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(last)
	c := env.E.NewContext(req, httptest.NewRecorder())

	sess, err := env.Sessions.Current(c)
	require.NoError(env.T, err)
	return sess
}

func (env *testEnv) seedUser(username, email, role string) *models.User {
	pwHash, err := hash.HashPassword("password")
	require.NoError(env.T, err)
	user := &models.User{Username: username, Email: email, PasswordHash: pwHash, Role: role}
	require.NoError(env.T, env.DB.Create(user).Error)
	return user
}

func (env *testEnv) seedBook(title, category string, price float64) *models.Book {
	book := &models.Book{Title: title, Author: "Test Author", Category: category, Price: price}
	require.NoError(env.T, env.DB.Create(book).Error)
	return book
}

func redirectTarget(t *testing.T, rec *httptest.ResponseRecorder) string {
	require.Equal(t, http.StatusSeeOther, rec.Code)
	return rec.Header().Get(echo.HeaderLocation)
}
