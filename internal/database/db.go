package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// bookingsSchema keys bookings by id and lets the UNIQUE slot_key index
// reject a second booking of the same slot.
const bookingsSchema = `CREATE TABLE IF NOT EXISTS bookings (
	booking_id   VARCHAR(64)   NOT NULL PRIMARY KEY,
	first_name   VARCHAR(100)  NOT NULL,
	middle_name  VARCHAR(100)  NOT NULL DEFAULT '',
	last_name    VARCHAR(100)  NOT NULL,
	phone_number VARCHAR(32)   NOT NULL,
	email        VARCHAR(254)  NOT NULL,
	slot_date    VARCHAR(10)   NOT NULL,
	slot_time    VARCHAR(32)   NOT NULL,
	slot_key     VARCHAR(64)   NOT NULL,
	description  TEXT          NOT NULL,
	confirmed    TINYINT(1)    NOT NULL DEFAULT 0,
	completed    TINYINT(1)    NOT NULL DEFAULT 0,
	created_at   DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY ux_bookings_slot_key (slot_key),
	KEY ix_bookings_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// Migrate creates the bookings table when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, bookingsSchema); err != nil {
		return fmt.Errorf("create bookings table: %w", err)
	}
	return nil
}
