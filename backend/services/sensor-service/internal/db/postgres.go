package db

import (
	"context"
	"database/sql"
	"time"

	libdb "evsense/backend/libs/db"
)

const (
	historyTable = `
	CREATE TABLE IF NOT EXISTS sensor_history (
		id          BIGSERIAL PRIMARY KEY,
		voltage     DOUBLE PRECISION NOT NULL,
		current     DOUBLE PRECISION NOT NULL,
		temperature DOUBLE PRECISION NOT NULL,
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		soh         DOUBLE PRECISION,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`
	historyIndex = `CREATE INDEX IF NOT EXISTS sensor_history_recorded_at_idx ON sensor_history (recorded_at DESC)`
)

// NewPostgres opens the history database and creates the sensor_history table when missing.
func NewPostgres(dsn string) (*sql.DB, error) {
	sqlDB, err := libdb.NewPostgresDB(dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := libdb.EnsureSchema(ctx, sqlDB, historyTable, historyIndex); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}
