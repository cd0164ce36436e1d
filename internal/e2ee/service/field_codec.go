package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	e2eeDomain "github.com/sealkeep/sealkeep/internal/e2ee/domain"
	"github.com/sealkeep/sealkeep/internal/metrics"
)

// decryptBatchConcurrency caps the fan-out for DecryptBatch.
const decryptBatchConcurrency = 8

// BatchRecord is one independently decryptable record in a batch: the
// envelopes of its encrypted fields plus the AAD identity they were sealed
// under.
type BatchRecord struct {
	Base      e2eeDomain.AADContext
	Envelopes map[string]e2eeDomain.EncryptedEnvelope
}

// BatchResult is the positional outcome for one BatchRecord. Failed counts
// the fields that could not be opened; those carry the placeholder value.
type BatchResult struct {
	Fields map[string][]byte
	Failed int
}

// FieldCodecService implements FieldCodec on top of the AEAD manager. The
// envelope's schema version selects the cipher, so old rows written under a
// previous version stay readable after the current version moves on.
type FieldCodecService struct {
	aeadManager AEADManager
	logger      *slog.Logger
	metrics     metrics.BusinessMetrics
}

// NewFieldCodec creates a new FieldCodecService.
func NewFieldCodec(
	aeadManager AEADManager,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
) *FieldCodecService {
	return &FieldCodecService{
		aeadManager: aeadManager,
		logger:      logger,
		metrics:     businessMetrics,
	}
}

// EncryptField seals one plaintext field under the current envelope version.
func (f *FieldCodecService) EncryptField(
	plaintext []byte,
	key *e2eeDomain.MasterKey,
	aad e2eeDomain.AADContext,
) (e2eeDomain.EncryptedEnvelope, error) {
	return f.encryptVersioned(plaintext, key, aad, e2eeDomain.CurrentEnvelopeVersion)
}

func (f *FieldCodecService) encryptVersioned(
	plaintext []byte,
	key *e2eeDomain.MasterKey,
	aad e2eeDomain.AADContext,
	version int,
) (e2eeDomain.EncryptedEnvelope, error) {
	if key == nil || len(key.Key) == 0 {
		return e2eeDomain.EncryptedEnvelope{}, e2eeDomain.ErrKeyUnavailable
	}

	alg, ok := e2eeDomain.AlgorithmForVersion(version)
	if !ok {
		return e2eeDomain.EncryptedEnvelope{}, e2eeDomain.ErrUnknownEnvelopeVersion
	}

	aead, err := f.aeadManager.CreateCipher(key.Key, alg)
	if err != nil {
		return e2eeDomain.EncryptedEnvelope{}, fmt.Errorf("failed to create cipher: %w", err)
	}

	ciphertext, nonce, err := aead.Encrypt(plaintext, aad.Bytes())
	if err != nil {
		return e2eeDomain.EncryptedEnvelope{}, fmt.Errorf("failed to encrypt field: %w", err)
	}

	return e2eeDomain.EncryptedEnvelope{
		IV:         nonce,
		Ciphertext: ciphertext,
		Version:    version,
	}, nil
}

// DecryptField opens one envelope. The envelope's version selects the cipher;
// the caller-supplied AAD must match the identity the field was sealed under.
func (f *FieldCodecService) DecryptField(
	envelope e2eeDomain.EncryptedEnvelope,
	key *e2eeDomain.MasterKey,
	aad e2eeDomain.AADContext,
) ([]byte, error) {
	if key == nil || len(key.Key) == 0 {
		return nil, e2eeDomain.ErrKeyUnavailable
	}

	alg, ok := e2eeDomain.AlgorithmForVersion(envelope.Version)
	if !ok {
		return nil, e2eeDomain.ErrUnknownEnvelopeVersion
	}

	aead, err := f.aeadManager.CreateCipher(key.Key, alg)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext, err := aead.Decrypt(envelope.Ciphertext, envelope.IV, aad.Bytes())
	if err != nil {
		// Tag verification failure is deliberately opaque: wrong key, tampered
		// ciphertext and mismatched AAD are indistinguishable to the caller.
		return nil, e2eeDomain.ErrDecryptionFailed
	}

	return plaintext, nil
}

// EncryptObject seals each field of a structured object independently. Every
// field gets its own envelope and IV, with the AAD scoped to the field name,
// so a partial update only touches the changed fields.
func (f *FieldCodecService) EncryptObject(
	fields map[string][]byte,
	key *e2eeDomain.MasterKey,
	base e2eeDomain.AADContext,
) (map[string]e2eeDomain.EncryptedEnvelope, error) {
	envelopes := make(map[string]e2eeDomain.EncryptedEnvelope, len(fields))
	for name, plaintext := range fields {
		envelope, err := f.EncryptField(plaintext, key, base.WithField(name))
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt field %q: %w", name, err)
		}
		envelopes[name] = envelope
	}
	return envelopes, nil
}

// DecryptObject opens each field of an object independently. A field that
// fails integrity verification does not abort the object: its value becomes
// the opaque placeholder and the failure is counted, so one corrupted column
// never hides the rest of the record.
func (f *FieldCodecService) DecryptObject(
	envelopes map[string]e2eeDomain.EncryptedEnvelope,
	key *e2eeDomain.MasterKey,
	base e2eeDomain.AADContext,
) (map[string][]byte, int) {
	fields := make(map[string][]byte, len(envelopes))
	failed := 0

	for name, envelope := range envelopes {
		plaintext, err := f.DecryptField(envelope, key, base.WithField(name))
		if err != nil {
			f.logger.Warn("field decryption failed",
				"table", base.Table,
				"record_id", base.RecordID,
				"field", name,
			)
			f.metrics.RecordOperation(context.Background(), "e2ee", "field_decrypt", "error")
			fields[name] = []byte(e2eeDomain.EncryptedPlaceholder)
			failed++
			continue
		}
		fields[name] = plaintext
	}

	return fields, failed
}

// DecryptBatch decrypts a list of independent records concurrently. Results
// are positional: results[i] corresponds to records[i]. Context cancellation
// stops scheduling new records; already-started ones finish.
func (f *FieldCodecService) DecryptBatch(
	ctx context.Context,
	key *e2eeDomain.MasterKey,
	records []BatchRecord,
) []BatchResult {
	results := make([]BatchResult, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(decryptBatchConcurrency)

	for i, record := range records {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fields, failed := f.DecryptObject(record.Envelopes, key, record.Base)
			results[i] = BatchResult{Fields: fields, Failed: failed}
			return nil
		})
	}

	// Workers never return errors; Wait is only a join point.
	_ = g.Wait()
	return results
}

// EncryptBlob seals an opaque attachment under the record's identity. Blobs
// use the reserved field name "blob" in the AAD so they can never be swapped
// with a structured field's envelope.
func (f *FieldCodecService) EncryptBlob(
	data []byte,
	key *e2eeDomain.MasterKey,
	base e2eeDomain.AADContext,
) (e2eeDomain.EncryptedEnvelope, error) {
	return f.EncryptField(data, key, base.WithField(e2eeDomain.BlobFieldName))
}

// DecryptBlob opens an attachment envelope sealed by EncryptBlob.
func (f *FieldCodecService) DecryptBlob(
	envelope e2eeDomain.EncryptedEnvelope,
	key *e2eeDomain.MasterKey,
	base e2eeDomain.AADContext,
) ([]byte, error) {
	return f.DecryptField(envelope, key, base.WithField(e2eeDomain.BlobFieldName))
}
