package database

import (
	"log"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Connect opens a SQLite database using the provided DSN.
func Connect(dsn string) *sqlx.DB {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	// SQLite allows a single writer; capping the pool at one connection also
	// serializes order transactions against each other.
	db.SetMaxOpenConns(1)
	db.MustExec(`PRAGMA foreign_keys = ON`)
	return db
}
