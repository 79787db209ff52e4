package repo

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dmarkin/bookstore/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Session{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	))
	return New(db)
}

func seedBook(t *testing.T, r *GormRepo, title, category string, price float64) *models.Book {
	book := &models.Book{Title: title, Author: "Test Author", Category: category, Price: price}
	require.NoError(t, r.CreateBook(context.Background(), book))
	return book
}

func TestBooksByCategoryExactMatch(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	seedBook(t, r, "Dune", "Sci-Fi", 10)
	seedBook(t, r, "Neuromancer", "Sci-Fi", 12)
	seedBook(t, r, "The Hobbit", "Fantasy", 8)

	scifi, err := r.BooksByCategory(ctx, "Sci-Fi")
	require.NoError(t, err)
	require.Len(t, scifi, 2)

	// case-sensitive, no fuzzy matching
	none, err := r.BooksByCategory(ctx, "sci-fi")
	require.NoError(t, err)
	require.Empty(t, none)

	all, err := r.Books(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestUpdateBookPartial(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	book := seedBook(t, r, "Dune", "Sci-Fi", 10)

	title := "Dune Messiah"
	updated, err := r.UpdateBook(ctx, book.ID, BookPatch{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Dune Messiah", updated.Title)
	require.Equal(t, "Test Author", updated.Author)
	require.Equal(t, float64(10), updated.Price)
	require.Equal(t, "Sci-Fi", updated.Category)

	price := 12.5
	updated, err = r.UpdateBook(ctx, book.ID, BookPatch{Price: &price})
	require.NoError(t, err)
	require.Equal(t, 12.5, updated.Price)
	require.Equal(t, "Dune Messiah", updated.Title)
}

func TestUpdateBookNotFound(t *testing.T) {
	r := newTestRepo(t)

	title := "x"
	_, err := r.UpdateBook(context.Background(), 999, BookPatch{Title: &title})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteBook(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	book := seedBook(t, r, "Dune", "Sci-Fi", 10)
	require.NoError(t, r.DeleteBook(ctx, book.ID))

	_, err := r.BookByID(ctx, book.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.ErrorIs(t, r.DeleteBook(ctx, book.ID), gorm.ErrRecordNotFound)
}

func TestCartSnapshotIsIndependent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	book := seedBook(t, r, "Dune", "Sci-Fi", 10)
	book.ImageURL = "http://img/dune.png"
	require.NoError(t, r.DB.Save(book).Error)

	_, err := r.AddCartItem(ctx, "sess-1", book)
	require.NoError(t, err)

	// mutate and even delete the book afterwards
	price := 99.0
	_, err = r.UpdateBook(ctx, book.ID, BookPatch{Price: &price})
	require.NoError(t, err)
	require.NoError(t, r.DeleteBook(ctx, book.ID))

	items, err := r.CartItems(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Dune", items[0].Title)
	require.Equal(t, float64(10), items[0].Price)
	require.Equal(t, "http://img/dune.png", items[0].ImageURL)
}

func TestCartNoDeduplication(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	book := seedBook(t, r, "Dune", "Sci-Fi", 10)
	_, err := r.AddCartItem(ctx, "sess-1", book)
	require.NoError(t, err)
	_, err = r.AddCartItem(ctx, "sess-1", book)
	require.NoError(t, err)

	items, err := r.CartItems(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestRemoveCartItemsDropsEveryEntry(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	dune := seedBook(t, r, "Dune", "Sci-Fi", 10)
	hobbit := seedBook(t, r, "The Hobbit", "Fantasy", 8)

	_, err := r.AddCartItem(ctx, "sess-1", dune)
	require.NoError(t, err)
	_, err = r.AddCartItem(ctx, "sess-1", dune)
	require.NoError(t, err)
	_, err = r.AddCartItem(ctx, "sess-1", hobbit)
	require.NoError(t, err)

	require.NoError(t, r.RemoveCartItems(ctx, "sess-1", dune.ID))

	items, err := r.CartItems(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, hobbit.ID, items[0].BookID)

	// absent cart: no-op
	require.NoError(t, r.RemoveCartItems(ctx, "sess-2", dune.ID))
}

func TestCheckoutOrderPersistsAndClearsCart(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	book := seedBook(t, r, "Dune", "Sci-Fi", 10)
	_, err := r.AddCartItem(ctx, "sess-1", book)
	require.NoError(t, err)

	order := &models.Order{
		UserID: 1, Name: "A", Email: "a@b.c", Phone: "1", Address: "x", City: "y", Zip: "z",
		PaymentMethod: "Cash on Delivery",
		TotalAmount:   10,
		Status:        models.OrderStatusPending,
		Items: []models.OrderItem{
			{BookID: book.ID, Title: book.Title, Author: book.Author, Price: book.Price, Quantity: 1},
		},
	}
	require.NoError(t, r.CheckoutOrder(ctx, order, "sess-1"))
	require.NotZero(t, order.ID)

	items, err := r.CartItems(ctx, "sess-1")
	require.NoError(t, err)
	require.Empty(t, items)

	orders, err := r.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	require.Equal(t, "Dune", orders[0].Items[0].Title)
}

func TestOrderSurvivesBookDeletion(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	book := seedBook(t, r, "Dune", "Sci-Fi", 10)
	order := &models.Order{
		UserID: 1, Name: "A", Email: "a@b.c", Phone: "1", Address: "x", City: "y", Zip: "z",
		PaymentMethod: "Cash on Delivery",
		TotalAmount:   10,
		Status:        models.OrderStatusPending,
		Items:         []models.OrderItem{{BookID: book.ID, Title: book.Title, Price: book.Price, Quantity: 1}},
	}
	require.NoError(t, r.CheckoutOrder(ctx, order, "sess-1"))

	require.NoError(t, r.DeleteBook(ctx, book.ID))

	orders, err := r.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "Dune", orders[0].Items[0].Title)
	require.Equal(t, float64(10), orders[0].Items[0].Price)
}

func TestUserUniqueness(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateUser(ctx, &models.User{
		Username: "alice", Email: "alice@example.com", PasswordHash: "h", Role: models.RoleUser,
	}))
	err := r.CreateUser(ctx, &models.User{
		Username: "alice", Email: "other@example.com", PasswordHash: "h", Role: models.RoleUser,
	})
	require.Error(t, err)

	_, err = r.UserByUsernameOrEmail(ctx, "nobody", "alice@example.com")
	require.NoError(t, err)
	_, err = r.UserByUsernameOrEmail(ctx, "nobody", "nobody@example.com")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
