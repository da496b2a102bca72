package redisclient

import (
	"context"
	"testing"

	"tours/internal/observability"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	opts, err := Options("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)

	opts, err = Options("redis://:secret@cache:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	_, err = Options("redis://bad host")
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client := Connect(mr.Addr())
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")

	assert.Nil(t, Connect("redis://bad host"))
}

func TestInstrument_CountsErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := Connect(mr.Addr())
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	Instrument(client, metrics)

	// redis.Nil is not an error for metrics.
	_ = client.Get(context.Background(), "missing").Err()
	assert.Equal(t, 0, testutil.CollectAndCount(metrics.RedisErrors))

	mr.SetError("forced failure")
	require.Error(t, client.Get(context.Background(), "k").Err())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RedisErrors.WithLabelValues("get")))
}
