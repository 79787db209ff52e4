package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/dmarkin/bookstore/internal/handlers"
	authmw "github.com/dmarkin/bookstore/internal/middleware/auth"
)

type Deps struct {
	Resolver *authmw.Resolver
	Auth     *handlers.AuthHandler
	Books    *handlers.BookHandler
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Pages    *handlers.PageHandler
	Search   *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	e.Use(d.Resolver.Middleware)

	e.GET("/", d.Pages.Home)
	e.GET("/home", d.Pages.Home)
	e.GET("/about", d.Pages.About)
	e.GET("/contact", d.Pages.ContactPage)
	e.POST("/contact", d.Pages.Contact)

	e.GET("/register", d.Auth.RegisterPage)
	e.POST("/register", d.Auth.Register)
	e.GET("/login", d.Auth.LoginPage)
	e.POST("/login", d.Auth.Login)
	e.GET("/logout", d.Auth.Logout)

	e.GET("/books", d.Books.List)
	e.GET("/books/category/:category", d.Books.List)
	e.GET("/books/:id/details", d.Books.Details)
	e.GET("/search", d.Search.Search)

	admin := d.Resolver.AdminOnly
	e.GET("/new", d.Books.NewBookPage, admin)
	e.POST("/new", d.Books.CreateBook, admin)
	e.POST("/books", d.Books.CreateBook, admin)
	e.GET("/books/:id/edit", d.Books.EditBookPage, admin)
	e.PUT("/books/:id", d.Books.UpdateBook, admin)
	e.DELETE("/books/:id", d.Books.DeleteBook, admin)
	e.GET("/dashboard", d.Pages.Dashboard, admin)

	login := d.Resolver.RequireLogin
	e.GET("/cart", d.Cart.GetCart, login)
	e.POST("/cart", d.Cart.AddToCart, login)
	e.POST("/cart/remove", d.Cart.RemoveFromCart, login)
	e.GET("/checkout", d.Checkout.CheckoutPage, login)
	e.POST("/complete-order", d.Checkout.CompleteOrder, login)
}
