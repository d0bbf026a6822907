//go:build integration

package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/testutil/containers"
)

func testAddr(b byte) domain.Address {
	var raw [20]byte
	raw[19] = b
	return domain.AddressFromBytes(raw)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	cache := NewRedis(rc.Client)

	vaultAddr := testAddr(0x10)
	holderAddr := testAddr(0x01)

	t.Run("set and get round-trips", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		require.NoError(t, cache.SetHolder(ctx, vaultAddr, holderAddr))
		holder, err := cache.GetHolder(ctx, vaultAddr)
		require.NoError(t, err)
		assert.Equal(t, holderAddr, holder)
	})

	t.Run("missing key is a miss", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		_, err := cache.GetHolder(ctx, vaultAddr)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("corrupt entry reads as a miss", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		require.NoError(t, rc.Client.Set(ctx, "registry:holder:"+vaultAddr.String(), "not-an-address", 0).Err())
		_, err := cache.GetHolder(ctx, vaultAddr)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("overwrite wins", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		other := testAddr(0x02)
		require.NoError(t, cache.SetHolder(ctx, vaultAddr, holderAddr))
		require.NoError(t, cache.SetHolder(ctx, vaultAddr, other))

		holder, err := cache.GetHolder(ctx, vaultAddr)
		require.NoError(t, err)
		assert.Equal(t, other, holder)
	})
}
