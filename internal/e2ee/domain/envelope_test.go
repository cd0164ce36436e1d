package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptedEnvelopeJSON(t *testing.T) {
	t.Run("wire shape", func(t *testing.T) {
		envelope := EncryptedEnvelope{
			IV:         []byte{0x01, 0x02, 0x03},
			Ciphertext: []byte("sealed"),
			Version:    EnvelopeV1,
		}

		data, err := json.Marshal(envelope)
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.Equal(t, "AQID", raw["iv"])
		assert.Equal(t, float64(1), raw["version"])
		assert.Contains(t, raw, "ciphertext")
	})

	t.Run("round trip", func(t *testing.T) {
		envelope := EncryptedEnvelope{
			IV:         []byte("twelve-bytes"),
			Ciphertext: []byte("opaque blob with tag"),
			Version:    EnvelopeV2,
		}

		data, err := json.Marshal(envelope)
		require.NoError(t, err)

		var decoded EncryptedEnvelope
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, envelope, decoded)
	})

	t.Run("invalid base64 rejected", func(t *testing.T) {
		var decoded EncryptedEnvelope
		err := json.Unmarshal([]byte(`{"iv":"!!","ciphertext":"","version":1}`), &decoded)
		assert.Error(t, err)
	})
}

func TestPRFParamsJSON(t *testing.T) {
	t.Run("credential id is base64url", func(t *testing.T) {
		params := PRFParams{
			Salt:         make([]byte, PRFSaltSize),
			CredentialID: []byte{0xfb, 0xff, 0xfe},
			Version:      1,
		}

		data, err := json.Marshal(params)
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		// base64url alphabet: no '+' or '/' and no padding
		assert.Equal(t, "-__-", raw["credential_id"])
	})

	t.Run("round trip", func(t *testing.T) {
		params := PRFParams{
			Salt:         []byte("0123456789abcdef0123456789abcdef"),
			CredentialID: []byte("credential-id"),
			Version:      3,
		}

		data, err := json.Marshal(params)
		require.NoError(t, err)

		var decoded PRFParams
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.True(t, params.Equal(decoded))
		assert.Equal(t, params.CredentialID, decoded.CredentialID)
	})
}

func TestPRFParamsEqual(t *testing.T) {
	base := PRFParams{Salt: []byte("salt-a"), Version: 1}
	assert.True(t, base.Equal(PRFParams{Salt: []byte("salt-a"), Version: 1}))
	assert.False(t, base.Equal(PRFParams{Salt: []byte("salt-b"), Version: 1}))
	assert.False(t, base.Equal(PRFParams{Salt: []byte("salt-a"), Version: 2}))
}
