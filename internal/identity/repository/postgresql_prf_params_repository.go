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

// PostgreSQLPRFParamsRepository handles PRF parameter persistence for PostgreSQL
type PostgreSQLPRFParamsRepository struct {
	db *sql.DB
}

// NewPostgreSQLPRFParamsRepository creates a new PostgreSQLPRFParamsRepository
func NewPostgreSQLPRFParamsRepository(db *sql.DB) *PostgreSQLPRFParamsRepository {
	return &PostgreSQLPRFParamsRepository{
		db: db,
	}
}

// Upsert inserts or replaces the single PRF parameter row for a user
func (r *PostgreSQLPRFParamsRepository) Upsert(ctx context.Context, record *domain.PRFParamsRecord) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO prf_params (user_id, salt, credential_id, version, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())
			  ON CONFLICT (user_id) DO UPDATE
			  SET salt = EXCLUDED.salt,
			      credential_id = EXCLUDED.credential_id,
			      version = EXCLUDED.version,
			      updated_at = NOW()`

	_, err := querier.ExecContext(ctx, query, record.UserID, record.Salt, record.CredentialID, record.Version)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert prf params")
	}
	return nil
}

// GetByUserID retrieves the PRF parameter row for a user
func (r *PostgreSQLPRFParamsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.PRFParamsRecord, error) {
	var record domain.PRFParamsRecord
	querier := database.GetTx(ctx, r.db)

	query := `SELECT user_id, salt, credential_id, version, created_at, updated_at
			  FROM prf_params WHERE user_id = $1`

	err := querier.QueryRowContext(ctx, query, userID).Scan(
		&record.UserID, &record.Salt, &record.CredentialID, &record.Version, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPRFParamsNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get prf params")
	}

	return &record, nil
}
