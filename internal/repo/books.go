package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/dmarkin/bookstore/internal/models"
)

// BookPatch carries partial-update fields: nil means "leave unchanged".
type BookPatch struct {
	Title       *string
	Author      *string
	Description *string
	Price       *float64
	Category    *string
	ImageURL    *string
	ImageKey    *string
}

func (r *GormRepo) Books(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// BooksByCategory matches the category exactly, case-sensitive.
func (r *GormRepo) BooksByCategory(ctx context.Context, category string) ([]models.Book, error) {
	var books []models.Book
	if err := r.DB.WithContext(ctx).Where("category = ?", category).Order("id ASC").Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *GormRepo) BookByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	if err := r.DB.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *GormRepo) CreateBook(ctx context.Context, book *models.Book) error {
	return r.DB.WithContext(ctx).Create(book).Error
}

func (r *GormRepo) UpdateBook(ctx context.Context, id uint, patch BookPatch) (*models.Book, error) {
	var book models.Book
	if err := r.DB.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, err
	}

	if patch.Title != nil {
		book.Title = *patch.Title
	}
	if patch.Author != nil {
		book.Author = *patch.Author
	}
	if patch.Description != nil {
		book.Description = *patch.Description
	}
	if patch.Price != nil {
		book.Price = *patch.Price
	}
	if patch.Category != nil {
		book.Category = *patch.Category
	}
	if patch.ImageURL != nil {
		book.ImageURL = *patch.ImageURL
	}
	if patch.ImageKey != nil {
		book.ImageKey = *patch.ImageKey
	}

	if err := r.DB.WithContext(ctx).Save(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes the catalog row only. Cart snapshots and order line
// items keep their copies.
func (r *GormRepo) DeleteBook(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Book{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
