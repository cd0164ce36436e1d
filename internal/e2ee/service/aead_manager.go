package service

import (
	e2eeDomain "github.com/sealkeep/sealkeep/internal/e2ee/domain"
)

// AEADManagerService implements the AEADManager interface for creating AEAD cipher instances.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher creates an AEAD cipher instance for the specified algorithm.
// Returns ErrInvalidKeySize if key is not 32 bytes or ErrUnsupportedAlgorithm if algorithm is unknown.
func (am *AEADManagerService) CreateCipher(key []byte, alg e2eeDomain.Algorithm) (AEAD, error) {
	if len(key) != e2eeDomain.MasterKeySize {
		return nil, e2eeDomain.ErrInvalidKeySize
	}

	switch alg {
	case e2eeDomain.AESGCM:
		return NewAESGCM(key)
	case e2eeDomain.ChaCha20:
		return NewChaCha20Poly1305(key)
	default:
		return nil, e2eeDomain.ErrUnsupportedAlgorithm
	}
}
