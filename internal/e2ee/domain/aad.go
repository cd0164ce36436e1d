package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// AADContext identifies the record a ciphertext belongs to. It is bound into
// the AEAD authentication tag as associated data, so an envelope moved to a
// different record, field, or user fails decryption instead of silently
// producing plaintext under the wrong identity.
//
// The same logical field must always derive the same AAD for its lifetime.
// Changing a record's identity (for example re-parenting it) requires
// re-encrypting its fields; stale AAD is never reused.
type AADContext struct {
	// Table is the logical table or collection name, e.g. "contacts".
	Table string
	// RecordID is the stable primary identifier of the record.
	RecordID uuid.UUID
	// Field is the column or attribute name within the record.
	Field string
	// UserID is the owning user.
	UserID uuid.UUID
}

// WithField returns a copy of the context scoped to a different field of the
// same record. Object encryption uses this to give every sub-field its own AAD.
func (a AADContext) WithField(field string) AADContext {
	a.Field = field
	return a
}

// Bytes returns the deterministic byte-string form bound into the
// authentication tag: table|record_id|field|user_id.
func (a AADContext) Bytes() []byte {
	return fmt.Appendf(nil, "%s|%s|%s|%s", a.Table, a.RecordID, a.Field, a.UserID)
}
