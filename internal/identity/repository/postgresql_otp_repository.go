package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sealkeep/sealkeep/internal/database"
	"github.com/sealkeep/sealkeep/internal/identity/domain"

	apperrors "github.com/sealkeep/sealkeep/internal/errors"
)

// PostgreSQLOTPRepository handles email OTP persistence for PostgreSQL
type PostgreSQLOTPRepository struct {
	db *sql.DB
}

// NewPostgreSQLOTPRepository creates a new PostgreSQLOTPRepository
func NewPostgreSQLOTPRepository(db *sql.DB) *PostgreSQLOTPRepository {
	return &PostgreSQLOTPRepository{
		db: db,
	}
}

// Create inserts a new OTP
func (r *PostgreSQLOTPRepository) Create(ctx context.Context, otp *domain.EmailOTP) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO email_otps (id, user_id, code_hash, expires_at, consumed_at, attempts, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW())`

	_, err := querier.ExecContext(ctx, query,
		otp.ID, otp.UserID, otp.CodeHash, otp.ExpiresAt, otp.ConsumedAt, otp.Attempts,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create otp")
	}
	return nil
}

// GetLatestByUserID retrieves the most recently issued OTP for a user
func (r *PostgreSQLOTPRepository) GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*domain.EmailOTP, error) {
	var otp domain.EmailOTP
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, code_hash, expires_at, consumed_at, attempts, created_at
			  FROM email_otps WHERE user_id = $1
			  ORDER BY created_at DESC LIMIT 1`

	err := querier.QueryRowContext(ctx, query, userID).Scan(
		&otp.ID, &otp.UserID, &otp.CodeHash, &otp.ExpiresAt, &otp.ConsumedAt, &otp.Attempts, &otp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOTPNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get latest otp")
	}

	return &otp, nil
}

// Update persists attempt count and consumption changes
func (r *PostgreSQLOTPRepository) Update(ctx context.Context, otp *domain.EmailOTP) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE email_otps SET consumed_at = $2, attempts = $3 WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, otp.ID, otp.ConsumedAt, otp.Attempts)
	if err != nil {
		return apperrors.Wrap(err, "failed to update otp")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrOTPNotFound
	}
	return nil
}

// DeleteExpired removes OTPs that expired before the given time
func (r *PostgreSQLOTPRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM email_otps WHERE expires_at < $1`

	result, err := querier.ExecContext(ctx, query, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired otps")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return rows, nil
}
