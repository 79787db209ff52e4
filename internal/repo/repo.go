package repo

import "gorm.io/gorm"

// GormRepo is the single persistence gateway for the app. Every method
// takes a context and maps one-to-one onto a store call; consistency
// relies on per-row atomicity plus the single checkout transaction.
type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
