package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/dmarkin/bookstore/internal/models"
)

// CheckoutOrder persists the order with its line items and clears the
// session's cart in the same transaction, so a failed write leaves the
// cart intact for retry.
func (r *GormRepo) CheckoutOrder(ctx context.Context, order *models.Order, sessionID string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return tx.Where("session_id = ?", sessionID).Delete(&models.CartItem{}).Error
	})
}

func (r *GormRepo) Orders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Order("id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
