package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Address     string `json:"address" validate:"required"`
	City        string `json:"city" validate:"required"`
	Country     string `json:"country" validate:"required"`
	PostalCode  string `json:"postal_code" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	AddressType string `json:"address_type" validate:"required"`
}

type Order struct {
	ID            int64         `json:"id"`
	Status        Status        `json:"status"`
	Paid          Paid          `json:"paid"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Customer      Customer      `json:"customer"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ItemInput is one requested {product, quantity} pair.
type ItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// Line is an association row joined with its product, as returned by reads
// and itemized in the confirmation mail.
type Line struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// View is the full order projection.
type View struct {
	Order
	Lines []Line          `json:"products"`
	Total decimal.Decimal `json:"total"`
}

// DepletedProduct is a product whose stock reached zero while fulfilling an
// order; the admin is told once per order.
type DepletedProduct struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
}
