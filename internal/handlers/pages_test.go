package handlers

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmarkin/bookstore/internal/mailer"
	"github.com/dmarkin/bookstore/internal/models"
)

func TestContactMissingFields(t *testing.T) {
	env := newTestEnv(t)
	pages := &PageHandler{Repo: env.Repo, Sessions: env.Sessions, Mailer: &mailer.Mailer{}}

	form := url.Values{"name": {"Alice"}, "email": {"alice@example.com"}}
	rec, c := env.formRequest(http.MethodPost, "/contact", form)
	require.NoError(t, pages.Contact(c))
	require.Equal(t, "/contact", redirectTarget(t, rec))
}

func TestContactUnconfiguredMailerStillRedirects(t *testing.T) {
	env := newTestEnv(t)
	pages := &PageHandler{Repo: env.Repo, Sessions: env.Sessions, Mailer: &mailer.Mailer{}}

	form := url.Values{
		"name":    {"Alice"},
		"email":   {"alice@example.com"},
		"subject": {"Hello"},
		"message": {"Hi there"},
	}
	rec, c := env.formRequest(http.MethodPost, "/contact", form)
	require.NoError(t, pages.Contact(c))
	// delivery failed, but the visitor still lands back on the form
	require.Equal(t, "/contact", redirectTarget(t, rec))
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	pages := &PageHandler{Repo: env.Repo, Sessions: env.Sessions, Mailer: &mailer.Mailer{}}

	env.seedUser("alice", "alice@example.com", models.RoleAdmin)
	env.seedBook("Dune", "Sci-Fi", 10)

	rec, c := env.formRequest(http.MethodGet, "/dashboard", nil)
	require.NoError(t, pages.Dashboard(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, "alice")
	require.Contains(t, body, "Dune")
}

func TestSearchEmptyQueryRedirects(t *testing.T) {
	env := newTestEnv(t)
	search := &SearchHandler{Sessions: env.Sessions}

	rec, c := env.formRequest(http.MethodGet, "/search?q=++", nil)
	require.NoError(t, search.Search(c))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/books", rec.Header().Get("Location"))
}

func TestSearchWithoutBackend(t *testing.T) {
	env := newTestEnv(t)
	search := &SearchHandler{Sessions: env.Sessions}

	rec, c := env.formRequest(http.MethodGet, "/search?q=dune", nil)
	require.NoError(t, search.Search(c))
	require.Equal(t, "/books", redirectTarget(t, rec))
}
