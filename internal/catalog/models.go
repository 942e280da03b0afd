package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	StockCount  int             `json:"stock_count"`
	Category    string          `json:"category"`
	ImageURL    *string         `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
}

const DefaultCategory = "Uncategorized"

// UpdateParams carries a partial update; nil means "keep the stored value".
type UpdateParams struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	StockCount  *int
	Category    *string
}
