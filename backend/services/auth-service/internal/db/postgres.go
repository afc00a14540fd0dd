package db

import (
	"context"
	"database/sql"
	"time"

	libdb "evsense/backend/libs/db"
)

const usersTable = `
	CREATE TABLE IF NOT EXISTS users (
		id            SERIAL PRIMARY KEY,
		email         VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		vehicle_id    VARCHAR(255),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// NewPostgres connects to Postgres using shared library helper and makes sure the users table exists.
func NewPostgres(dsn string) (*sql.DB, error) {
	sqlDB, err := libdb.NewPostgresDB(dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := libdb.EnsureSchema(ctx, sqlDB, usersTable); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}
