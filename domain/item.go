package domain

import "github.com/shopspring/decimal"

type Item struct {
	ItemID        int64           `db:"itemid" json:"itemid"`
	Name          string          `db:"name" json:"name"`
	Description   *string         `db:"description" json:"description,omitempty"`
	Price         decimal.Decimal `db:"price" json:"price"`
	Category      string          `db:"category" json:"category"`
	StockQuantity int64           `db:"stock_quantity" json:"stock_quantity"`
	CreatedAt     string          `db:"created_at" json:"created_at"`
	UpdatedAt     string          `db:"updated_at" json:"updated_at"`
}
