package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/mediasafe/keystore"
	"github.com/jmcleod/mediasafe/keystore/memory"
)

func TestManager_MigrateToEnvelope(t *testing.T) {
	store := memory.NewStore()
	m := NewManager(store)

	require.NoError(t, m.RegisterLegacyObject("old-photo", "alice"))
	assert.ErrorIs(t, m.RegisterLegacyObject("old-photo", "alice"), ErrAlreadyExists)

	ck := wrappedKey(t)
	thumbCK := wrappedKey(t)
	require.NoError(t, m.MigrateToEnvelope("old-photo", "alice", ck, thumbCK))

	rec, err := store.GetContentKey("old-photo")
	require.NoError(t, err)
	assert.Equal(t, keystore.ModeEnvelope, rec.Mode)
	assert.Equal(t, ck, rec.EncryptedKey)
	assert.Equal(t, thumbCK, rec.ThumbnailEncryptedKey)

	got, err := m.GetContentKey("old-photo", "alice")
	require.NoError(t, err)
	assert.Equal(t, ck, got.EncryptedKey)
}

func TestManager_MigrateToEnvelope_Idempotent(t *testing.T) {
	store := memory.NewStore()
	m := NewManager(store)

	require.NoError(t, m.RegisterLegacyObject("old-photo", "alice"))
	ck := wrappedKey(t)
	require.NoError(t, m.MigrateToEnvelope("old-photo", "alice", ck, nil))

	before, err := store.GetContentKey("old-photo")
	require.NoError(t, err)

	// The second call is a no-op: it succeeds and the record, including the
	// original content key, is untouched.
	require.NoError(t, m.MigrateToEnvelope("old-photo", "alice", wrappedKey(t), nil))

	after, err := store.GetContentKey("old-photo")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestManager_MigrateToEnvelope_Failures(t *testing.T) {
	m := NewManager(memory.NewStore())
	require.NoError(t, m.RegisterLegacyObject("old-photo", "alice"))

	err := m.MigrateToEnvelope("no-such-object", "alice", wrappedKey(t), nil)
	assert.ErrorIs(t, err, ErrNotFound)

	err = m.MigrateToEnvelope("old-photo", "bob", wrappedKey(t), nil)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	err = m.MigrateToEnvelope("old-photo", "alice", nil, nil)
	assert.Error(t, err)
}

func TestManager_GetMigrationStatus(t *testing.T) {
	m := NewManager(memory.NewStore())

	t.Run("NoObjects", func(t *testing.T) {
		status, err := m.GetMigrationStatus("alice")
		require.NoError(t, err)
		assert.Equal(t, 0, status.Total)
		assert.True(t, status.Complete)
	})

	require.NoError(t, m.RegisterLegacyObject("photo-1", "alice"))
	require.NoError(t, m.RegisterLegacyObject("photo-2", "alice"))
	require.NoError(t, m.CreateContentKey("photo-3", "alice", wrappedKey(t), nil))
	require.NoError(t, m.RegisterLegacyObject("photo-4", "bob"))

	t.Run("Partial", func(t *testing.T) {
		status, err := m.GetMigrationStatus("alice")
		require.NoError(t, err)
		assert.Equal(t, 2, status.Legacy)
		assert.Equal(t, 1, status.Envelope)
		assert.Equal(t, 3, status.Total)
		assert.False(t, status.Complete)
	})

	t.Run("Complete", func(t *testing.T) {
		require.NoError(t, m.MigrateToEnvelope("photo-1", "alice", wrappedKey(t), nil))
		require.NoError(t, m.MigrateToEnvelope("photo-2", "alice", wrappedKey(t), nil))

		status, err := m.GetMigrationStatus("alice")
		require.NoError(t, err)
		assert.Equal(t, 0, status.Legacy)
		assert.Equal(t, 3, status.Envelope)
		assert.True(t, status.Complete)

		// Bob's objects are untouched.
		bobStatus, err := m.GetMigrationStatus("bob")
		require.NoError(t, err)
		assert.Equal(t, 1, bobStatus.Legacy)
		assert.False(t, bobStatus.Complete)
	})
}
