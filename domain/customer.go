package domain

type Customer struct {
	CustomerID int64   `db:"customerid" json:"customerid"`
	Name       string  `db:"name" json:"name"`
	Email      *string `db:"email" json:"email,omitempty"`
	Phone      string  `db:"phone" json:"phone"`
	Address    *string `db:"address" json:"address,omitempty"`
	CreatedAt  string  `db:"created_at" json:"created_at"`
	UpdatedAt  string  `db:"updated_at" json:"updated_at"`
}
