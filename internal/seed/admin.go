package seed

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// EnsureAdmin creates the default admin account when no users exist yet.
func EnsureAdmin(db *sqlx.DB) {
	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM users`); err != nil {
		log.Fatalf("failed to check for existing users: %v", err)
	}
	if count > 0 {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash default admin password: %v", err)
	}
	_, err = db.Exec(`INSERT INTO users (username, email, role, password) VALUES (?, ?, 'admin', ?)`,
		"admin", "admin@pos.com", string(hashed))
	if err != nil {
		log.Fatalf("failed to create default admin: %v", err)
	}
	log.Println("default admin user created (admin / admin123), change the password after first login")
}
