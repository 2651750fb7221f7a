package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAuth(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "auth.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRead_SubscriptionTokens(t *testing.T) {
	path := writeAuth(t, t.TempDir(), `{
		"tokens": {
			"id_token": "id",
			"access_token": "acc",
			"refresh_token": "ref",
			"account_id": "acct-1"
		},
		"last_refresh": "2026-08-01T00:00:00Z"
	}`)

	auth, err := NewStore(WithPath(path)).Read()
	require.NoError(t, err)
	require.NotNil(t, auth)
	assert.True(t, auth.HasSubscription())
	assert.False(t, auth.HasAPIKey())
	assert.Equal(t, "acct-1", auth.Tokens.AccountID)
}

func TestRead_APIKey(t *testing.T) {
	path := writeAuth(t, t.TempDir(), `{"OPENAI_API_KEY": "sk-test"}`)

	auth, err := NewStore(WithPath(path)).Read()
	require.NoError(t, err)
	require.NotNil(t, auth)
	assert.True(t, auth.HasAPIKey())
	assert.False(t, auth.HasSubscription())
}

func TestRead_MissingFileIsNil(t *testing.T) {
	auth, err := NewStore(WithPath(filepath.Join(t.TempDir(), "auth.json"))).Read()
	require.NoError(t, err)
	assert.Nil(t, auth)
}

func TestRead_CorruptFileIsNil(t *testing.T) {
	path := writeAuth(t, t.TempDir(), `{not json`)

	auth, err := NewStore(WithPath(path)).Read()
	require.NoError(t, err)
	assert.Nil(t, auth)
}

func TestAuth_NilReceiverPredicates(t *testing.T) {
	var auth *Auth
	assert.False(t, auth.HasSubscription())
	assert.False(t, auth.HasAPIKey())
}
