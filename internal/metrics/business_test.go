package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBusinessMetrics(t *testing.T) {
	provider, err := NewProvider("testapp")
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "testapp")
	require.NoError(t, err)
	assert.NotNil(t, bm)

	// Recording must not panic with arbitrary labels.
	ctx := context.Background()
	bm.RecordOperation(ctx, "identity", "otp_send", "success")
	bm.RecordOperation(ctx, "e2ee", "field_decrypt", "error")
	bm.RecordDuration(ctx, "identity", "ceremony_login", 42*time.Millisecond, "success")
}

func TestNoopBusinessMetrics(t *testing.T) {
	bm := NoopBusinessMetrics()
	bm.RecordOperation(context.Background(), "identity", "otp_send", "success")
	bm.RecordDuration(context.Background(), "identity", "otp_send", time.Second, "success")
}

func TestProviderHandler(t *testing.T) {
	provider, err := NewProvider("testapp")
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	assert.NotNil(t, provider.Handler())
}
