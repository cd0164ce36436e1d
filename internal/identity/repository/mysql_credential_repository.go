package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/sealkeep/sealkeep/internal/database"
	"github.com/sealkeep/sealkeep/internal/identity/domain"

	apperrors "github.com/sealkeep/sealkeep/internal/errors"
)

// MySQLCredentialRepository handles passkey credential persistence for MySQL
type MySQLCredentialRepository struct {
	db *sql.DB
}

// NewMySQLCredentialRepository creates a new MySQLCredentialRepository
func NewMySQLCredentialRepository(db *sql.DB) *MySQLCredentialRepository {
	return &MySQLCredentialRepository{
		db: db,
	}
}

// Create inserts a new credential
func (r *MySQLCredentialRepository) Create(ctx context.Context, credential *domain.PasskeyCredential) error {
	querier := database.GetTx(ctx, r.db)

	data, err := credential.MarshalCredential()
	if err != nil {
		return err
	}

	query := `INSERT INTO passkey_credentials (id, user_id, credential_id, credential, created_at, last_used_at)
			  VALUES (?, ?, ?, ?, NOW(), ?)`

	_, err = querier.ExecContext(ctx, query,
		credential.ID.String(), credential.UserID.String(), credential.CredentialID, data, credential.LastUsedAt,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrCredentialAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create credential")
	}
	return nil
}

// GetByUserID retrieves all credentials registered for a user
func (r *MySQLCredentialRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.PasskeyCredential, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, credential_id, credential, created_at, last_used_at
			  FROM passkey_credentials WHERE user_id = ?
			  ORDER BY created_at`

	rows, err := querier.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list credentials")
	}
	defer rows.Close()

	var credentials []domain.PasskeyCredential
	for rows.Next() {
		var credential domain.PasskeyCredential
		var rawID, rawUserID string
		var data []byte
		err := rows.Scan(
			&rawID, &rawUserID, &credential.CredentialID,
			&data, &credential.CreatedAt, &credential.LastUsedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan credential")
		}
		if credential.ID, err = uuid.Parse(rawID); err != nil {
			return nil, apperrors.Wrap(err, "failed to parse credential row id")
		}
		if credential.UserID, err = uuid.Parse(rawUserID); err != nil {
			return nil, apperrors.Wrap(err, "failed to parse user id")
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
func (r *MySQLCredentialRepository) Update(ctx context.Context, credential *domain.PasskeyCredential) error {
	querier := database.GetTx(ctx, r.db)

	data, err := credential.MarshalCredential()
	if err != nil {
		return err
	}

	query := `UPDATE passkey_credentials SET credential = ?, last_used_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, data, credential.LastUsedAt, credential.ID.String())
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
