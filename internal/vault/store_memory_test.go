package vault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save and find round-trips", func(t *testing.T) {
		store := NewInMemoryStore()
		v := &Vault{Address: testAddr(0x10), Owner: ownerAddr, UnlockTime: 42}
		require.NoError(t, store.Save(ctx, v))

		found, err := store.FindByAddress(ctx, v.Address)
		require.NoError(t, err)
		assert.Equal(t, v, found)
	})

	t.Run("unknown address reports not found", func(t *testing.T) {
		store := NewInMemoryStore()
		_, err := store.FindByAddress(ctx, testAddr(0x99))
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("returned vault is a copy", func(t *testing.T) {
		store := NewInMemoryStore()
		require.NoError(t, store.Save(ctx, &Vault{Address: testAddr(0x10), Owner: ownerAddr}))

		found, err := store.FindByAddress(ctx, testAddr(0x10))
		require.NoError(t, err)
		found.Owner = strangerAddr

		again, err := store.FindByAddress(ctx, testAddr(0x10))
		require.NoError(t, err)
		assert.Equal(t, ownerAddr, again.Owner)
	})

	t.Run("save overwrites previous state", func(t *testing.T) {
		store := NewInMemoryStore()
		require.NoError(t, store.Save(ctx, &Vault{Address: testAddr(0x10), Owner: ownerAddr}))
		require.NoError(t, store.Save(ctx, &Vault{Address: testAddr(0x10), Owner: recoveryAddr, UnlockTime: 7}))

		found, err := store.FindByAddress(ctx, testAddr(0x10))
		require.NoError(t, err)
		assert.Equal(t, recoveryAddr, found.Owner)
		assert.Equal(t, uint64(7), found.UnlockTime)
	})
}
