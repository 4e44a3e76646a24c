package store

import (
	"context"
	"database/sql"
	"fmt"

	"aibetix/internal/audit"
	"aibetix/internal/geo"
)

// PostgresStore persists location verification records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, rec *audit.LocationVerification) error {
	if rec == nil {
		return fmt.Errorf("record is required")
	}
	var lat, lon *float64
	if rec.GPS != nil {
		lat, lon = &rec.GPS.Latitude, &rec.GPS.Longitude
	}
	query := `
		INSERT INTO location_verifications
			(id, user_id, ip_address, gps_latitude, gps_longitude, is_allowed, region, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.IPAddress, lat, lon, rec.IsAllowed, rec.Region, nullable(rec.Reason), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record location verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) HistoryByUser(ctx context.Context, userID string, limit int) ([]audit.LocationVerification, error) {
	query := `
		SELECT id, user_id, ip_address, gps_latitude, gps_longitude, is_allowed, region, reason, created_at
		FROM location_verifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list location history: %w", err)
	}
	defer rows.Close()

	history := []audit.LocationVerification{}
	for rows.Next() {
		var (
			rec      audit.LocationVerification
			lat, lon sql.NullFloat64
			reason   sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.IPAddress, &lat, &lon, &rec.IsAllowed, &rec.Region, &reason, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan location record: %w", err)
		}
		if lat.Valid && lon.Valid {
			rec.GPS = &geo.Coordinates{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		rec.Reason = reason.String
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate location history: %w", err)
	}
	return history, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
