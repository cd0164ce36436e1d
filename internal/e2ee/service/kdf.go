package service

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	e2eeDomain "github.com/sealkeep/sealkeep/internal/e2ee/domain"
	"github.com/sealkeep/sealkeep/internal/errors"
)

// masterKeyInfoFormat is the HKDF info string template. The version component
// comes from the user's stored parameters, so bumping the version after a
// credential reset yields an unrelated key even for an identical PRF output.
const masterKeyInfoFormat = "sealkeep/e2ee/master-key/v%d"

// KDFService derives master keys from WebAuthn PRF outputs using
// HKDF-SHA256. Derivation is deterministic: the same PRF output, salt and
// version always produce the same key, which is what lets a user reach the
// same key from any of their registered passkeys on any device.
type KDFService struct{}

// NewKDF creates a new KDFService.
func NewKDF() *KDFService {
	return &KDFService{}
}

// DeriveMasterKey derives the 256-bit master key for userID.
//
// prfOutput is the raw 32-byte output of the authenticator's PRF evaluation;
// an empty output means the authenticator did not support the extension and
// derivation must not proceed. params.Salt doubles as the HKDF salt, and
// params.Version is folded into the info string.
func (k *KDFService) DeriveMasterKey(
	userID uuid.UUID,
	prfOutput []byte,
	params e2eeDomain.PRFParams,
) (*e2eeDomain.MasterKey, error) {
	if len(prfOutput) == 0 {
		return nil, e2eeDomain.ErrPRFUnsupported
	}
	if len(prfOutput) != e2eeDomain.PRFOutputSize {
		return nil, errors.Wrap(
			errors.ErrInvalidInput,
			fmt.Sprintf("prf output must be %d bytes, got %d", e2eeDomain.PRFOutputSize, len(prfOutput)),
		)
	}
	if len(params.Salt) != e2eeDomain.PRFSaltSize {
		return nil, errors.Wrap(
			errors.ErrInvalidInput,
			fmt.Sprintf("prf salt must be %d bytes, got %d", e2eeDomain.PRFSaltSize, len(params.Salt)),
		)
	}

	info := fmt.Sprintf(masterKeyInfoFormat, params.Version)
	reader := hkdf.New(sha256.New, prfOutput, params.Salt, []byte(info))

	material := make([]byte, e2eeDomain.MasterKeySize)
	if _, err := io.ReadFull(reader, material); err != nil {
		return nil, fmt.Errorf("failed to derive master key: %w", err)
	}

	return e2eeDomain.NewMasterKey(userID, material)
}
