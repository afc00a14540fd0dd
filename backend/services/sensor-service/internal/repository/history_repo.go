package repository

import (
	"context"
	"database/sql"

	"evsense/backend/services/sensor-service/internal/models"
)

// HistoryRepository persists samples in the sensor_history table.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository returns repository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append stores a new history entry and fills its id and timestamp.
func (r *HistoryRepository) Append(ctx context.Context, entry *models.HistoryEntry) error {
	const query = `
		INSERT INTO sensor_history (voltage, current, temperature, latitude, longitude, soh, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, recorded_at
	`
	var soh sql.NullFloat64
	if entry.SOH != nil {
		soh = sql.NullFloat64{Float64: *entry.SOH, Valid: true}
	}
	return r.db.QueryRowContext(ctx, query,
		entry.Voltage,
		entry.Current,
		entry.Temperature,
		entry.Latitude,
		entry.Longitude,
		soh,
		entry.Timestamp,
	).Scan(&entry.ID, &entry.Timestamp)
}

// Recent returns up to limit entries, newest first.
func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	const query = `
		SELECT id, voltage, current, temperature, latitude, longitude, soh, recorded_at
		FROM sensor_history
		ORDER BY recorded_at DESC, id DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0, limit)
	for rows.Next() {
		var (
			entry models.HistoryEntry
			soh   sql.NullFloat64
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.Voltage,
			&entry.Current,
			&entry.Temperature,
			&entry.Latitude,
			&entry.Longitude,
			&soh,
			&entry.Timestamp,
		); err != nil {
			return nil, err
		}
		if soh.Valid {
			v := soh.Float64
			entry.SOH = &v
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
