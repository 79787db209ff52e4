package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dmarkin/bookstore/internal/es"
	"github.com/dmarkin/bookstore/internal/events"
	"github.com/dmarkin/bookstore/internal/logging"
	"github.com/dmarkin/bookstore/internal/models"
	"github.com/dmarkin/bookstore/internal/repo"
	"github.com/dmarkin/bookstore/internal/session"
)

// ImageStore is the slice of the object store the book handlers use.
// *storage.ImageStore satisfies it; a nil store disables uploads.
type ImageStore interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (url, key string, err error)
	Delete(ctx context.Context, key string) error
}

type BookHandler struct {
	Repo     *repo.GormRepo
	Sessions *session.Manager
	Producer *events.Producer
	Images   ImageStore
	ES       *elasticsearch.Client
	ESIndex  string
}

func (h *BookHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	selected := c.Param("category")
	if selected == "" {
		selected = "All"
	}

	all, err := h.Repo.Books(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("cannot load books", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load books")
	}

	books := all
	if selected != "All" {
		if books, err = h.Repo.BooksByCategory(ctx, selected); err != nil {
			logging.FromContext(ctx).Error("cannot load books", "category", selected, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot load books")
		}
	}

	return render(c, h.Sessions, "books.html", "Books", map[string]any{
		"Books":            books,
		"Categories":       categories(all),
		"SelectedCategory": selected,
	})
}

func categories(books []models.Book) []string {
	seen := map[string]bool{}
	var out []string
	for _, b := range books {
		if b.Category != "" && !seen[b.Category] {
			seen[b.Category] = true
			out = append(out, b.Category)
		}
	}
	return out
}

func (h *BookHandler) Details(c echo.Context) error {
	book, err := h.bookFromParam(c)
	if err != nil {
		// a missing book is a normal outcome, not an error page
		return flashRedirect(c, h.Sessions, "error", "Book not found", "/books")
	}

	return render(c, h.Sessions, "book_details.html", book.Title, map[string]any{
		"Book": book,
	})
}

func (h *BookHandler) NewBookPage(c echo.Context) error {
	return render(c, h.Sessions, "book_form.html", "New book", map[string]any{
		"Action": "/new",
		"Book":   nil,
	})
}

func (h *BookHandler) CreateBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book_create")

	price, err := strconv.ParseFloat(strings.TrimSpace(c.FormValue("price")), 64)
	if err != nil || price < 0 {
		return flashRedirect(c, h.Sessions, "error", "Price must be a non-negative number", "/new")
	}

	book := models.Book{
		Title:       strings.TrimSpace(c.FormValue("title")),
		Author:      strings.TrimSpace(c.FormValue("author")),
		Description: c.FormValue("description"),
		Price:       price,
		Category:    strings.TrimSpace(c.FormValue("category")),
	}

	if file, err := c.FormFile("image"); err == nil {
		url, key, err := h.uploadImage(c, file)
		if err != nil {
			l.Warn("image upload failed", "error", err)
		} else {
			book.ImageURL = url
			book.ImageKey = key
		}
	}

	if err := h.Repo.CreateBook(ctx, &book); err != nil {
		l.Error("create_failed", "error", err)
		return flashRedirect(c, h.Sessions, "error", "Could not save the book", "/new")
	}

	h.indexBook(c, &book)
	publish(c, h.Producer, "book_events", itoa(book.ID), map[string]any{
		"type":   "book_created",
		"bookID": book.ID,
		"title":  book.Title,
	})

	l.Info("create_success", "book_id", book.ID)
	return flashRedirect(c, h.Sessions, "success", "Book added", "/books")
}

func (h *BookHandler) EditBookPage(c echo.Context) error {
	book, err := h.bookFromParam(c)
	if err != nil {
		return flashRedirect(c, h.Sessions, "error", "Book not found", "/books")
	}

	return render(c, h.Sessions, "book_form.html", "Edit "+book.Title, map[string]any{
		"Action": fmt.Sprintf("/books/%d", book.ID),
		"Book":   book,
	})
}

func (h *BookHandler) UpdateBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book_update")

	book, err := h.bookFromParam(c)
	if err != nil {
		return flashRedirect(c, h.Sessions, "error", "Book not found", "/books")
	}
	editPage := fmt.Sprintf("/books/%d/edit", book.ID)

	// absent or empty fields keep their prior value
	var patch repo.BookPatch
	patch.Title = nonEmpty(c.FormValue("title"))
	patch.Author = nonEmpty(c.FormValue("author"))
	patch.Description = nonEmpty(c.FormValue("description"))
	patch.Category = nonEmpty(c.FormValue("category"))

	if s := strings.TrimSpace(c.FormValue("price")); s != "" {
		price, err := strconv.ParseFloat(s, 64)
		if err != nil || price < 0 {
			return flashRedirect(c, h.Sessions, "error", "Price must be a non-negative number", editPage)
		}
		patch.Price = &price
	}

	var replacedImageKey string
	if file, err := c.FormFile("image"); err == nil {
		url, key, err := h.uploadImage(c, file)
		if err != nil {
			l.Warn("image upload failed", "error", err)
		} else {
			patch.ImageURL = &url
			patch.ImageKey = &key
			replacedImageKey = book.ImageKey
		}
	}

	updated, err := h.Repo.UpdateBook(ctx, book.ID, patch)
	if err != nil {
		l.Error("update_failed", "book_id", book.ID, "error", err)
		return flashRedirect(c, h.Sessions, "error", "Could not update the book", editPage)
	}

	// the old cover is orphaned only once the row points at the new one
	h.deleteImage(c, replacedImageKey)

	h.indexBook(c, updated)
	publish(c, h.Producer, "book_events", itoa(updated.ID), map[string]any{
		"type":   "book_updated",
		"bookID": updated.ID,
		"title":  updated.Title,
	})

	l.Info("update_success", "book_id", updated.ID)
	return flashRedirect(c, h.Sessions, "success", "Book updated", fmt.Sprintf("/books/%d/details", updated.ID))
}

func (h *BookHandler) DeleteBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book_delete")

	book, err := h.bookFromParam(c)
	if err != nil {
		return flashRedirect(c, h.Sessions, "error", "Book not found", "/books")
	}

	// carts and past orders keep their snapshots
	if err := h.Repo.DeleteBook(ctx, book.ID); err != nil {
		l.Error("delete_failed", "book_id", book.ID, "error", err)
		return flashRedirect(c, h.Sessions, "error", "Could not delete the book", "/books")
	}

	h.deleteImage(c, book.ImageKey)
	if h.ES != nil {
		if err := es.DeleteBook(ctx, h.ES, h.ESIndex, book.ID); err != nil {
			l.Warn("search index delete failed", "book_id", book.ID, "error", err)
		}
	}
	publish(c, h.Producer, "book_events", itoa(book.ID), map[string]any{
		"type":   "book_deleted",
		"bookID": book.ID,
	})

	l.Info("delete_success", "book_id", book.ID)
	return flashRedirect(c, h.Sessions, "success", "Book deleted", "/books")
}

func (h *BookHandler) bookFromParam(c echo.Context) (*models.Book, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid id %q", c.Param("id"))
	}
	book, err := h.Repo.BookByID(c.Request().Context(), uint(id))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logging.FromContext(c.Request().Context()).Error("book lookup failed", "id", id, "error", err)
		}
		return nil, err
	}
	return book, nil
}

func (h *BookHandler) uploadImage(c echo.Context, file *multipart.FileHeader) (url, key string, err error) {
	if h.Images == nil {
		return "", "", errors.New("image store not configured")
	}
	src, err := file.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()
	return h.Images.Upload(c.Request().Context(), file.Filename, file.Header.Get("Content-Type"), src)
}

// deleteImage is best-effort: an orphaned object is only worth a warning.
func (h *BookHandler) deleteImage(c echo.Context, key string) {
	if h.Images == nil || key == "" {
		return
	}
	if err := h.Images.Delete(c.Request().Context(), key); err != nil {
		logging.FromContext(c.Request().Context()).Warn("old image delete failed", "key", key, "error", err)
	}
}

func (h *BookHandler) indexBook(c echo.Context, book *models.Book) {
	if h.ES == nil {
		return
	}
	if err := es.IndexBook(c.Request().Context(), h.ES, h.ESIndex, book); err != nil {
		logging.FromContext(c.Request().Context()).Warn("search index failed", "book_id", book.ID, "error", err)
	}
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
