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

// MySQLOTPRepository handles email OTP persistence for MySQL
type MySQLOTPRepository struct {
	db *sql.DB
}

// NewMySQLOTPRepository creates a new MySQLOTPRepository
func NewMySQLOTPRepository(db *sql.DB) *MySQLOTPRepository {
	return &MySQLOTPRepository{
		db: db,
	}
}

// Create inserts a new OTP
func (r *MySQLOTPRepository) Create(ctx context.Context, otp *domain.EmailOTP) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO email_otps (id, user_id, code_hash, expires_at, consumed_at, attempts, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, NOW())`

	_, err := querier.ExecContext(ctx, query,
		otp.ID.String(), otp.UserID.String(), otp.CodeHash, otp.ExpiresAt, otp.ConsumedAt, otp.Attempts,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create otp")
	}
	return nil
}

// GetLatestByUserID retrieves the most recently issued OTP for a user
func (r *MySQLOTPRepository) GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*domain.EmailOTP, error) {
	var otp domain.EmailOTP
	var rawID, rawUserID string
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, code_hash, expires_at, consumed_at, attempts, created_at
			  FROM email_otps WHERE user_id = ?
			  ORDER BY created_at DESC LIMIT 1`

	err := querier.QueryRowContext(ctx, query, userID.String()).Scan(
		&rawID, &rawUserID, &otp.CodeHash, &otp.ExpiresAt, &otp.ConsumedAt, &otp.Attempts, &otp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOTPNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get latest otp")
	}

	if otp.ID, err = uuid.Parse(rawID); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse otp id")
	}
	if otp.UserID, err = uuid.Parse(rawUserID); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse user id")
	}
	return &otp, nil
}

// Update persists attempt count and consumption changes
func (r *MySQLOTPRepository) Update(ctx context.Context, otp *domain.EmailOTP) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE email_otps SET consumed_at = ?, attempts = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, otp.ConsumedAt, otp.Attempts, otp.ID.String())
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
func (r *MySQLOTPRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM email_otps WHERE expires_at < ?`

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
