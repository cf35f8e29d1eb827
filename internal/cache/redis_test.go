package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_AddressForms(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		wantAddr string
		wantDB   int
		wantErr  bool
	}{
		{"bare host and port", "localhost:6379", "localhost:6379", 0, false},
		{"url with db", "redis://cache.internal:6380/2", "cache.internal:6380", 2, false},
		{"bad url", "redis://cache.internal:6380/notadb", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = client.Close() })
			assert.Equal(t, tt.wantAddr, client.Options().Addr)
			assert.Equal(t, tt.wantDB, client.Options().DB)
		})
	}
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.Equal(t, "v", client.Get(context.Background(), "k").Val())
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), addr)
	assert.ErrorContains(t, err, "redis ping")
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "rl:auth:ip:10.0.0.1", RateLimitKey("auth", "ip:10.0.0.1"))
	assert.Equal(t, "session:revoked:abc", RevokedTokenKey("abc"))
}
