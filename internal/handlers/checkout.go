package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dmarkin/bookstore/internal/events"
	"github.com/dmarkin/bookstore/internal/logging"
	authmw "github.com/dmarkin/bookstore/internal/middleware/auth"
	"github.com/dmarkin/bookstore/internal/models"
	"github.com/dmarkin/bookstore/internal/repo"
	"github.com/dmarkin/bookstore/internal/session"
)

// Every payment collapses to this label; no other method exists yet.
const paymentCashOnDelivery = "Cash on Delivery"

type CheckoutHandler struct {
	Repo     *repo.GormRepo
	Sessions *session.Manager
	Producer *events.Producer
}

func (h *CheckoutHandler) CheckoutPage(c echo.Context) error {
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
	if len(items) == 0 {
		return flashRedirect(c, h.Sessions, "error", "Your cart is empty", "/books")
	}

	return render(c, h.Sessions, "checkout.html", "Checkout", map[string]any{
		"Items": items,
		"Total": cartTotal(items),
	})
}

func (h *CheckoutHandler) CompleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout")

	sess := authmw.CurrentSession(c)
	user := authmw.CurrentUser(c)
	if sess == nil || user == nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	order := models.Order{
		UserID:        user.ID,
		Name:          strings.TrimSpace(c.FormValue("name")),
		Email:         strings.TrimSpace(c.FormValue("email")),
		Phone:         strings.TrimSpace(c.FormValue("phone")),
		Address:       strings.TrimSpace(c.FormValue("address")),
		City:          strings.TrimSpace(c.FormValue("city")),
		Zip:           strings.TrimSpace(c.FormValue("zip")),
		PaymentMethod: paymentCashOnDelivery,
		Status:        models.OrderStatusPending,
		CreatedAt:     time.Now(),
	}
	if order.Name == "" || order.Email == "" || order.Phone == "" ||
		order.Address == "" || order.City == "" || order.Zip == "" {
		return flashRedirect(c, h.Sessions, "error", "All contact fields are required", "/checkout")
	}

	items, err := h.Repo.CartItems(ctx, sess.ID)
	if err != nil {
		l.Error("cannot load cart", "error", err)
		return flashRedirect(c, h.Sessions, "error", "Could not place your order, please try again", "/checkout")
	}
	if len(items) == 0 {
		// no order is created; nothing to clear either
		return flashRedirect(c, h.Sessions, "error", "Your cart is empty", "/books")
	}

	// total is computed here from the snapshots, never taken from the client
	for _, it := range items {
		q := it.Quantity
		if q == 0 {
			q = 1
		}
		order.Items = append(order.Items, models.OrderItem{
			BookID:   it.BookID,
			Title:    it.Title,
			Author:   it.Author,
			Price:    it.Price,
			Quantity: q,
		})
		order.TotalAmount += it.Price * float64(q)
	}

	// the cart is cleared in the same transaction, so a failed write keeps
	// it intact for retry
	if err := h.Repo.CheckoutOrder(ctx, &order, sess.ID); err != nil {
		l.Error("order_failed", "error", err)
		return flashRedirect(c, h.Sessions, "error", "Could not place your order, please try again", "/checkout")
	}

	publish(c, h.Producer, "order_events", itoa(order.ID), map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"userID":  user.ID,
		"total":   order.TotalAmount,
	})

	l.Info("order_created", "order_id", order.ID, "total", order.TotalAmount)
	return flashRedirect(c, h.Sessions, "success", fmt.Sprintf("Order #%d placed, thank you!", order.ID), "/books")
}
