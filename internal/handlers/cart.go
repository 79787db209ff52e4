package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dmarkin/bookstore/internal/events"
	"github.com/dmarkin/bookstore/internal/logging"
	"github.com/dmarkin/bookstore/internal/models"
	"github.com/dmarkin/bookstore/internal/repo"
	"github.com/dmarkin/bookstore/internal/session"
)

type CartHandler struct {
	Repo     *repo.GormRepo
	Sessions *session.Manager
	Producer *events.Producer
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()

	sess, err := h.Sessions.Start(c)
	if err != nil {
		logging.FromContext(ctx).Error("cannot start session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	items, err := h.Repo.CartItems(ctx, sess.ID)
	if err != nil {
		logging.FromContext(ctx).Error("cannot load cart", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load cart")
	}

	return render(c, h.Sessions, "cart.html", "Your cart", map[string]any{
		"Items": items,
		"Total": cartTotal(items),
	})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_add")

	sess, err := h.Sessions.Start(c)
	if err != nil {
		l.Error("cannot start session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	bookID, err := strconv.Atoi(c.FormValue("book_id"))
	if err != nil || bookID <= 0 {
		return flashRedirect(c, h.Sessions, "error", "Book not found", "/books")
	}

	book, err := h.Repo.BookByID(ctx, uint(bookID))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			l.Error("book lookup failed", "book_id", bookID, "error", err)
		}
		return flashRedirect(c, h.Sessions, "error", "Book not found", "/books")
	}

	item, err := h.Repo.AddCartItem(ctx, sess.ID, book)
	if err != nil {
		l.Error("add_failed", "book_id", book.ID, "error", err)
		return flashRedirect(c, h.Sessions, "error", "Could not add the book to your cart", "/books")
	}

	publish(c, h.Producer, "cart_events", sess.ID, map[string]any{
		"type":    "cart_item_added",
		"session": sess.ID,
		"bookID":  book.ID,
		"itemID":  item.ID,
	})

	return flashRedirect(c, h.Sessions, "success", "Added to cart: "+book.Title, "/books")
}

// RemoveFromCart drops every cart entry holding the given book. Removing
// from an empty or absent cart is a silent no-op.
func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_remove")

	sess, err := h.Sessions.Start(c)
	if err != nil {
		l.Error("cannot start session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	bookID, err := strconv.Atoi(c.FormValue("book_id"))
	if err != nil || bookID <= 0 {
		return c.Redirect(http.StatusSeeOther, "/cart")
	}

	if err := h.Repo.RemoveCartItems(ctx, sess.ID, uint(bookID)); err != nil {
		l.Error("remove_failed", "book_id", bookID, "error", err)
		return flashRedirect(c, h.Sessions, "error", "Could not update your cart", "/cart")
	}

	publish(c, h.Producer, "cart_events", sess.ID, map[string]any{
		"type":    "cart_item_removed",
		"session": sess.ID,
		"bookID":  bookID,
	})

	return c.Redirect(http.StatusSeeOther, "/cart")
}

func cartTotal(items []models.CartItem) float64 {
	var total float64
	for _, it := range items {
		q := it.Quantity
		if q == 0 {
			q = 1
		}
		total += it.Price * float64(q)
	}
	return total
}
