package httpserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/dmarkin/bookstore/internal/view"
)

func newTestServer(t *testing.T) *echo.Echo {
	e := echo.New()
	renderer, err := view.New()
	require.NoError(t, err)
	e.Renderer = renderer
	e.HTTPErrorHandler = ErrorHandler
	return e
}

func TestUnknownRouteRendersNotFoundPage(t *testing.T) {
	e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/no-such-page", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Page not found")
}

func TestHandlerErrorRendersErrorPageWithMessage(t *testing.T) {
	e := newTestServer(t)
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Something went wrong")
	require.Contains(t, body, "boom")
}

func TestPlainErrorHidesDetailBehindGenericMessage(t *testing.T) {
	e := newTestServer(t)
	e.GET("/fail", func(c echo.Context) error {
		return errors.New("pq: connection refused")
	})

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "internal error")
	require.NotContains(t, body, "connection refused")
}
