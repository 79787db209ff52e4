package repo

import (
	"context"

	"github.com/dmarkin/bookstore/internal/models"
)

func (r *GormRepo) CartItems(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddCartItem appends a snapshot of the book to the session's cart. No
// deduplication: repeat additions produce repeat rows.
func (r *GormRepo) AddCartItem(ctx context.Context, sessionID string, book *models.Book) (*models.CartItem, error) {
	item := models.CartItem{
		SessionID: sessionID,
		BookID:    book.ID,
		Title:     book.Title,
		Author:    book.Author,
		Price:     book.Price,
		ImageURL:  book.ImageURL,
		Quantity:  1,
	}
	if err := r.DB.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveCartItems drops every entry of the session's cart holding the
// given book id. Removing from an absent cart is a no-op.
func (r *GormRepo) RemoveCartItems(ctx context.Context, sessionID string, bookID uint) error {
	return r.DB.WithContext(ctx).
		Where("session_id = ? AND book_id = ?", sessionID, bookID).
		Delete(&models.CartItem{}).Error
}
