package domain

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

type User struct {
	UserID    int64  `db:"userid" json:"userid"`
	Username  string `db:"username" json:"username"`
	Email     string `db:"email" json:"email"`
	Role      string `db:"role" json:"role"`
	Password  string `db:"password" json:"-"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}
