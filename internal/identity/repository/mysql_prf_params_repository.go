package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/sealkeep/sealkeep/internal/database"
	"github.com/sealkeep/sealkeep/internal/identity/domain"

	apperrors "github.com/sealkeep/sealkeep/internal/errors"
)

// MySQLPRFParamsRepository handles PRF parameter persistence for MySQL
type MySQLPRFParamsRepository struct {
	db *sql.DB
}

// NewMySQLPRFParamsRepository creates a new MySQLPRFParamsRepository
func NewMySQLPRFParamsRepository(db *sql.DB) *MySQLPRFParamsRepository {
	return &MySQLPRFParamsRepository{
		db: db,
	}
}

// Upsert inserts or replaces the single PRF parameter row for a user
func (r *MySQLPRFParamsRepository) Upsert(ctx context.Context, record *domain.PRFParamsRecord) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO prf_params (user_id, salt, credential_id, version, created_at, updated_at)
			  VALUES (?, ?, ?, ?, NOW(), NOW())
			  ON DUPLICATE KEY UPDATE
			  salt = VALUES(salt),
			  credential_id = VALUES(credential_id),
			  version = VALUES(version),
			  updated_at = NOW()`

	_, err := querier.ExecContext(ctx, query, record.UserID.String(), record.Salt, record.CredentialID, record.Version)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert prf params")
	}
	return nil
}

// GetByUserID retrieves the PRF parameter row for a user
func (r *MySQLPRFParamsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.PRFParamsRecord, error) {
	var record domain.PRFParamsRecord
	var rawUserID string
	querier := database.GetTx(ctx, r.db)

	query := `SELECT user_id, salt, credential_id, version, created_at, updated_at
			  FROM prf_params WHERE user_id = ?`

	err := querier.QueryRowContext(ctx, query, userID.String()).Scan(
		&rawUserID, &record.Salt, &record.CredentialID, &record.Version, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPRFParamsNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get prf params")
	}

	record.UserID, err = uuid.Parse(rawUserID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse user id")
	}
	return &record, nil
}
