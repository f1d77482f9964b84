package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"angels_reviews/internal/adapters/mailer"
	"angels_reviews/internal/shared"
)

func TestOpenStore_Backends(t *testing.T) {
	ctx := context.Background()

	st, closeFn, err := OpenStore(ctx, shared.Config{StoreBackend: "memory"})
	require.NoError(t, err)
	require.NotNil(t, st)
	closeFn()

	mr := miniredis.RunT(t)
	st, closeFn, err = OpenStore(ctx, shared.Config{StoreBackend: "redis", RedisAddr: mr.Addr()})
	require.NoError(t, err)
	defer closeFn()
	require.NoError(t, st.Set(ctx, "k", []byte("v")))
	v, ok, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(v))

	_, _, err = OpenStore(ctx, shared.Config{StoreBackend: "etcd"})
	assert.Error(t, err)
}

func TestReviews_UnconfiguredWithoutKey(t *testing.T) {
	cfg := shared.Config{PlaceID: "ChIJ123"}
	cl := Places(cfg)
	assert.Nil(t, cl)

	st, _, _ := OpenStore(context.Background(), cfg)
	svc := Reviews(cfg, cl, st)
	assert.False(t, svc.Configured())
	assert.Empty(t, svc.GetReviews(context.Background(), false, nil))
}

func TestNotifier_FallsBackToLog(t *testing.T) {
	_, isLog := Notifier(shared.Config{}).(mailer.LogNotifier)
	assert.True(t, isLog)
}
