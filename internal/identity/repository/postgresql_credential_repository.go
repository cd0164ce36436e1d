package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/sealkeep/sealkeep/internal/database"
	"github.com/sealkeep/sealkeep/internal/identity/domain"

	apperrors "github.com/sealkeep/sealkeep/internal/errors"
)

// PostgreSQLCredentialRepository handles passkey credential persistence for PostgreSQL
type PostgreSQLCredentialRepository struct {
	db *sql.DB
}

// NewPostgreSQLCredentialRepository creates a new PostgreSQLCredentialRepository
func NewPostgreSQLCredentialRepository(db *sql.DB) *PostgreSQLCredentialRepository {
	return &PostgreSQLCredentialRepository{
		db: db,
	}
}

// Create inserts a new credential
func (r *PostgreSQLCredentialRepository) Create(ctx context.Context, credential *domain.PasskeyCredential) error {
	querier := database.GetTx(ctx, r.db)

	data, err := credential.MarshalCredential()
	if err != nil {
		return err
	}

	query := `INSERT INTO passkey_credentials (id, user_id, credential_id, credential, created_at, last_used_at)
			  VALUES ($1, $2, $3, $4, NOW(), $5)`

	_, err = querier.ExecContext(ctx, query,
		credential.ID, credential.UserID, credential.CredentialID, data, credential.LastUsedAt,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrCredentialAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create credential")
	}
	return nil
}

// GetByUserID retrieves all credentials registered for a user
func (r *PostgreSQLCredentialRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.PasskeyCredential, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, credential_id, credential, created_at, last_used_at
			  FROM passkey_credentials WHERE user_id = $1
			  ORDER BY created_at`

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list credentials")
	}
	defer rows.Close()

	var credentials []domain.PasskeyCredential
	for rows.Next() {
		var credential domain.PasskeyCredential
		var data []byte
		err := rows.Scan(
			&credential.ID, &credential.UserID, &credential.CredentialID,
			&data, &credential.CreatedAt, &credential.LastUsedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan credential")
		}
		if err := credential.UnmarshalCredential(data); err != nil {
			return nil, err
		}
		credentials = append(credentials, credential)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate credentials")
	}

	return credentials, nil
}

// Update persists the credential's authenticator state and usage metadata
func (r *PostgreSQLCredentialRepository) Update(ctx context.Context, credential *domain.PasskeyCredential) error {
	querier := database.GetTx(ctx, r.db)

	data, err := credential.MarshalCredential()
	if err != nil {
		return err
	}

	query := `UPDATE passkey_credentials SET credential = $2, last_used_at = $3 WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, credential.ID, data, credential.LastUsedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to update credential")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrCredentialNotFound
	}
	return nil
}
