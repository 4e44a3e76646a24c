package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"aibetix/internal/geo"
	"aibetix/internal/identity"
	"aibetix/pkg/platform/sentinel"
)

// PostgresStore persists identity verifications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed verification store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const verificationColumns = `
	id, user_id, document_type, document_number, document_country,
	document_image, selfie_image, gps_latitude, gps_longitude,
	ip_address, user_agent, device, status, rejection_reason,
	submitted_at, verified_at, reviewed_by, reviewed_at
`

func (s *PostgresStore) Create(ctx context.Context, v *identity.Verification) error {
	if v == nil {
		return fmt.Errorf("verification is required")
	}
	query := `
		INSERT INTO identity_verifications (` + verificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	var lat, lon *float64
	if v.GPS != nil {
		lat, lon = &v.GPS.Latitude, &v.GPS.Longitude
	}
	_, err := s.db.ExecContext(ctx, query,
		v.ID, v.UserID, string(v.DocumentType), v.DocumentNumber, v.DocumentCountry,
		v.DocumentImage, v.SelfieImage, lat, lon,
		v.IPAddress, v.UserAgent, v.Device, string(v.Status), nullable(v.RejectionReason),
		v.SubmittedAt, v.VerifiedAt, nullable(v.ReviewedBy), v.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("create verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestByUser(ctx context.Context, userID string) (*identity.Verification, error) {
	query := `
		SELECT ` + verificationColumns + `
		FROM identity_verifications
		WHERE user_id = $1
		ORDER BY submitted_at DESC
		LIMIT 1
	`
	v, err := scanVerification(s.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("latest verification by user: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) ListPending(ctx context.Context, page, limit int) ([]identity.Verification, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM identity_verifications WHERE status = 'PENDING'`,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count pending verifications: %w", err)
	}

	query := `
		SELECT ` + verificationColumns + `
		FROM identity_verifications
		WHERE status = 'PENDING'
		ORDER BY submitted_at ASC
		OFFSET $1 LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list pending verifications: %w", err)
	}
	defer rows.Close()

	verifications := []identity.Verification{}
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan pending verification: %w", err)
		}
		verifications = append(verifications, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate pending verifications: %w", err)
	}
	return verifications, total, nil
}

// Review transitions a verification out of PENDING exactly once. The
// conditional update guarantees a concurrent second review observes zero
// affected rows and reports a conflict. An approval flips the user's
// identity_verified flag in the same transaction.
func (s *PostgresStore) Review(ctx context.Context, verificationID string, decision ReviewDecision) (*identity.Verification, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin review tx: %w", err)
	}
	defer tx.Rollback()

	status := identity.StatusRejected
	now := time.Now().UTC()
	var verifiedAt *time.Time
	if decision.Approved {
		status = identity.StatusApproved
		verifiedAt = &now
	}

	query := `
		UPDATE identity_verifications
		SET status = $2, rejection_reason = $3, verified_at = $4, reviewed_by = $5, reviewed_at = $6
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + verificationColumns + `
	`
	v, err := scanVerification(tx.QueryRowContext(ctx, query,
		verificationID, string(status), nullable(decision.Reason), verifiedAt, decision.ReviewerID, now,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.classifyReviewMiss(ctx, verificationID)
		}
		return nil, fmt.Errorf("review verification: %w", err)
	}

	if decision.Approved {
		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET identity_verified = TRUE, identity_verified_at = $2
			WHERE id = $1
		`, v.UserID, now); err != nil {
			return nil, fmt.Errorf("mark user verified: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit review tx: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) classifyReviewMiss(ctx context.Context, verificationID string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM identity_verifications WHERE id = $1)`, verificationID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("classify review miss: %w", err)
	}
	if exists {
		return sentinel.ErrConflict
	}
	return sentinel.ErrNotFound
}

func (s *PostgresStore) IsUserVerified(ctx context.Context, userID string) (bool, error) {
	var verified bool
	err := s.db.QueryRowContext(ctx,
		`SELECT identity_verified FROM users WHERE id = $1`, userID,
	).Scan(&verified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup user verified flag: %w", err)
	}
	return verified, nil
}

type verificationRow interface {
	Scan(dest ...any) error
}

func scanVerification(row verificationRow) (*identity.Verification, error) {
	var (
		v          identity.Verification
		docType    string
		status     string
		lat, lon   sql.NullFloat64
		rejection  sql.NullString
		reviewedBy sql.NullString
	)
	if err := row.Scan(
		&v.ID, &v.UserID, &docType, &v.DocumentNumber, &v.DocumentCountry,
		&v.DocumentImage, &v.SelfieImage, &lat, &lon,
		&v.IPAddress, &v.UserAgent, &v.Device, &status, &rejection,
		&v.SubmittedAt, &v.VerifiedAt, &reviewedBy, &v.ReviewedAt,
	); err != nil {
		return nil, err
	}
	v.DocumentType = identity.DocumentType(docType)
	v.Status = identity.Status(status)
	v.RejectionReason = rejection.String
	v.ReviewedBy = reviewedBy.String
	if lat.Valid && lon.Valid {
		v.GPS = &geo.Coordinates{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	return &v, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
