package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// OrderStatusPending is the only status an order ever gets for now, there
// are no transition endpoints.
const OrderStatusPending = "Pending"

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type Book struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string  `gorm:"not null"                 json:"title"`
	Author      string  `gorm:"not null"                 json:"author"`
	Description string  `json:"description"`
	Price       float64 `gorm:"not null"                 json:"price"`
	Category    string  `gorm:"index"                    json:"category"`
	ImageURL    string  `json:"image_url"`
	ImageKey    string  `json:"-"`
}

// Session is a server-side session row. The browser only holds a signed
// token with the session id; user binding, flash and cart all live here.
type Session struct {
	ID        string `gorm:"primaryKey"       json:"id"`
	UserID    uint   `gorm:"index"            json:"user_id"`
	Flash     string `json:"-"`
	FlashKind string `json:"-"`
	ExpiresAt int64  `gorm:"not null"         json:"expires_at"`
}

// CartItem is a snapshot of a book at the moment it was added, keyed by
// session. Edits to the book afterwards do not reach items already in a
// cart, and adding the same book twice yields two rows.
type CartItem struct {
	ID        uint    `gorm:"primaryKey"      json:"id"`
	SessionID string  `gorm:"index;not null"  json:"session_id"`
	BookID    uint    `gorm:"not null"        json:"book_id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url"`
	Quantity  uint    `gorm:"default:1"       json:"quantity"`
}

type Order struct {
	ID            uint        `gorm:"primaryKey"     json:"id"`
	UserID        uint        `gorm:"index"          json:"user_id"`
	Name          string      `gorm:"not null"       json:"name"`
	Email         string      `gorm:"not null"       json:"email"`
	Phone         string      `gorm:"not null"       json:"phone"`
	Address       string      `gorm:"not null"       json:"address"`
	City          string      `gorm:"not null"       json:"city"`
	Zip           string      `gorm:"not null"       json:"zip"`
	PaymentMethod string      `gorm:"not null"       json:"payment_method"`
	TotalAmount   float64     `gorm:"not null"       json:"total_amount"`
	Status        string      `gorm:"not null;default:Pending" json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	Items         []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// OrderItem carries its own copy of title/author/price so orders stay
// historical snapshots after the book changes or disappears.
type OrderItem struct {
	ID       uint    `gorm:"primaryKey"     json:"id"`
	OrderID  uint    `gorm:"index;not null" json:"order_id"`
	BookID   uint    `json:"book_id"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Price    float64 `json:"price"`
	Quantity uint    `gorm:"default:1"      json:"quantity"`
}
