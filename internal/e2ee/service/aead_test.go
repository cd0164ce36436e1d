package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	e2eeDomain "github.com/sealkeep/sealkeep/internal/e2ee/domain"
)

func TestAEADManagerCreateCipher(t *testing.T) {
	manager := NewAEADManager()
	key := make([]byte, 32)

	t.Run("aes-gcm", func(t *testing.T) {
		aead, err := manager.CreateCipher(key, e2eeDomain.AESGCM)
		require.NoError(t, err)
		assert.IsType(t, &AESGCMCipher{}, aead)
	})

	t.Run("chacha20-poly1305", func(t *testing.T) {
		aead, err := manager.CreateCipher(key, e2eeDomain.ChaCha20)
		require.NoError(t, err)
		assert.IsType(t, &ChaCha20Poly1305Cipher{}, aead)
	})

	t.Run("wrong key size", func(t *testing.T) {
		_, err := manager.CreateCipher(make([]byte, 16), e2eeDomain.AESGCM)
		assert.ErrorIs(t, err, e2eeDomain.ErrInvalidKeySize)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := manager.CreateCipher(key, e2eeDomain.Algorithm("rot13"))
		assert.ErrorIs(t, err, e2eeDomain.ErrUnsupportedAlgorithm)
	})
}

func TestAEADRoundTrip(t *testing.T) {
	manager := NewAEADManager()
	key := []byte("0123456789abcdef0123456789abcdef")
	plaintext := []byte("card number 4111 1111 1111 1111")
	aad := []byte("cards|rec-1|number|user-1")

	for _, alg := range []e2eeDomain.Algorithm{e2eeDomain.AESGCM, e2eeDomain.ChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			aead, err := manager.CreateCipher(key, alg)
			require.NoError(t, err)

			ciphertext, nonce, err := aead.Encrypt(plaintext, aad)
			require.NoError(t, err)
			assert.Len(t, nonce, 12)
			assert.NotEqual(t, plaintext, ciphertext)

			decrypted, err := aead.Decrypt(ciphertext, nonce, aad)
			require.NoError(t, err)
			assert.Equal(t, plaintext, decrypted)

			t.Run("aad mismatch fails", func(t *testing.T) {
				_, err := aead.Decrypt(ciphertext, nonce, []byte("cards|rec-2|number|user-1"))
				assert.Error(t, err)
			})

			t.Run("tampered ciphertext fails", func(t *testing.T) {
				tampered := append([]byte(nil), ciphertext...)
				tampered[0] ^= 0xff
				_, err := aead.Decrypt(tampered, nonce, aad)
				assert.Error(t, err)
			})
		})
	}
}
