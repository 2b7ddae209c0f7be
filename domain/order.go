package domain

import "github.com/shopspring/decimal"

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	OrderID     int64           `db:"orderid" json:"orderid"`
	CustomerID  *int64          `db:"customerid" json:"customerid,omitempty"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status      string          `db:"status" json:"status"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	UpdatedAt   string          `db:"updated_at" json:"updated_at"`

	CustomerName  *string `db:"customer_name" json:"customer_name,omitempty"`
	CustomerEmail *string `db:"customer_email" json:"customer_email,omitempty"`
	CustomerPhone *string `db:"customer_phone" json:"customer_phone,omitempty"`

	Items []OrderLine `json:"items"`
}

// OrderLine carries the price snapshot taken when the order was created;
// later item price changes never touch it.
type OrderLine struct {
	ItemID   int64           `db:"itemid" json:"itemid"`
	Quantity int64           `db:"quantity" json:"quantity"`
	Price    decimal.Decimal `db:"price" json:"price"`
	Name     string          `db:"name" json:"name"`
	Category string          `db:"category" json:"category"`
}
