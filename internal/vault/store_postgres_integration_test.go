//go:build integration

package vault

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/pkg/platform/sentinel"
	"custodia/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	store := NewPostgres(pg.DB)

	t.Run("save and find round-trips", func(t *testing.T) {
		require.NoError(t, pg.TruncateAll(ctx))

		v := &Vault{
			Address:    testAddr(0x10),
			Owner:      ownerAddr,
			UnlockTime: 42,
			CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
		}
		require.NoError(t, store.Save(ctx, v))

		found, err := store.FindByAddress(ctx, v.Address)
		require.NoError(t, err)
		assert.Equal(t, v.Address, found.Address)
		assert.Equal(t, v.Owner, found.Owner)
		assert.Equal(t, v.UnlockTime, found.UnlockTime)
		assert.True(t, v.CreatedAt.Equal(found.CreatedAt))
	})

	t.Run("save upserts owner and unlock time", func(t *testing.T) {
		require.NoError(t, pg.TruncateAll(ctx))

		v := &Vault{Address: testAddr(0x10), Owner: ownerAddr, CreatedAt: time.Now()}
		require.NoError(t, store.Save(ctx, v))

		v.Owner = recoveryAddr
		v.UnlockTime = 99
		require.NoError(t, store.Save(ctx, v))

		found, err := store.FindByAddress(ctx, v.Address)
		require.NoError(t, err)
		assert.Equal(t, recoveryAddr, found.Owner)
		assert.Equal(t, uint64(99), found.UnlockTime)
	})

	t.Run("unknown address reports not found", func(t *testing.T) {
		require.NoError(t, pg.TruncateAll(ctx))

		_, err := store.FindByAddress(ctx, testAddr(0x99))
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
