package handlers

import (
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/dmarkin/bookstore/internal/es"
	"github.com/dmarkin/bookstore/internal/logging"
	"github.com/dmarkin/bookstore/internal/session"
)

const searchPageSize = 50

type SearchHandler struct {
	ES       *elasticsearch.Client
	Index    string
	Sessions *session.Manager
}

func (h *SearchHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.Redirect(http.StatusSeeOther, "/books")
	}
	if h.ES == nil {
		return flashRedirect(c, h.Sessions, "error", "Search is currently unavailable", "/books")
	}

	total, books, err := es.Search(ctx, h.ES, h.Index, q, 0, searchPageSize)
	if err != nil {
		logging.FromContext(ctx).Error("search failed", "query", q, "error", err)
		return flashRedirect(c, h.Sessions, "error", "Search is currently unavailable", "/books")
	}

	return render(c, h.Sessions, "search.html", "Search", map[string]any{
		"Query": q,
		"Total": total,
		"Books": books,
	})
}
