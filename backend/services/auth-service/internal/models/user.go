package models

import (
	"database/sql"
	"time"
)

// User is an account holder. VehicleID links the account to the telemetry source.
type User struct {
	ID           int64          `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	VehicleID    sql.NullString `db:"vehicle_id" json:"vehicle_id"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}
