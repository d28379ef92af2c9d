package sqlite

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

func TestCredentialRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github", "ghp_abc123"))

	val, err := repo.Get(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc123", val)
}

func TestCredentialRepo_StoresCiphertext(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github", "ghp_secret"))

	var raw string
	require.NoError(t, db.Reader.QueryRowContext(ctx, `SELECT value FROM credentials WHERE service = 'github'`).Scan(&raw))
	assert.NotContains(t, raw, "ghp_secret")
}

func TestCredentialRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())

	val, err := repo.Get(context.Background(), "github")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestCredentialRepo_UpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github", "old-value"))
	require.NoError(t, repo.Set(ctx, "github", "new-value"))

	val, err := repo.Get(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, "new-value", val)
}

func TestCredentialRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github", "ghp_abc"))
	require.NoError(t, repo.Delete(ctx, "github"))

	val, err := repo.Get(ctx, "github")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestCredentialRepo_NoKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, nil)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Set(ctx, "github", "ghp_abc"), driven.ErrEncryptionKeyNotSet)

	_, err := repo.Get(ctx, "github")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestCredentialRepo_WrongKeyFailsDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, NewCredentialRepo(db, testKey()).Set(ctx, "github", "ghp_abc"))

	other := make([]byte, 32)
	_, err := NewCredentialRepo(db, other).Get(ctx, "github")
	assert.Error(t, err)
}

func TestParseSecretKey(t *testing.T) {
	key, err := ParseSecretKey(strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Len(t, key, 32)

	key, err = ParseSecretKey("")
	require.NoError(t, err)
	assert.Nil(t, key)

	_, err = ParseSecretKey("zz")
	assert.Error(t, err)

	_, err = ParseSecretKey("abcd")
	assert.Error(t, err)
}
