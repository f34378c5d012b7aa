package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempTokenPath(t *testing.T) string {
	t.Helper()

	return filepath.Join(t.TempDir(), "session.json")
}

func TestOpen_MissingFileYieldsEmptySession(t *testing.T) {
	st, err := Open(tempTokenPath(t))
	require.NoError(t, err)

	sess := st.Current()
	assert.False(t, sess.Authenticated())
	assert.Empty(t, sess.AccessToken)
	assert.Empty(t, sess.RefreshToken)
}

func TestSaveAndReload(t *testing.T) {
	path := tempTokenPath(t)

	st, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, st.Save(Session{AccessToken: "acc-1", RefreshToken: "ref-1"}))

	// Fresh store simulates a process restart.
	st2, err := Open(path)
	require.NoError(t, err)

	sess := st2.Current()
	assert.True(t, sess.Authenticated())
	assert.Equal(t, "acc-1", sess.AccessToken)
	assert.Equal(t, "ref-1", sess.RefreshToken)
}

func TestSave_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits not meaningful on windows")
	}

	path := tempTokenPath(t)

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Save(Session{AccessToken: "acc"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePerms), info.Mode().Perm())
}

func TestSave_BothTokensWrittenTogether(t *testing.T) {
	path := tempTokenPath(t)

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Save(Session{AccessToken: "acc", RefreshToken: "ref"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed struct {
		Token struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"token"`
	}
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "acc", parsed.Token.AccessToken)
	assert.Equal(t, "ref", parsed.Token.RefreshToken)
}

func TestClear_RemovesCredentials(t *testing.T) {
	path := tempTokenPath(t)

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Save(Session{AccessToken: "acc", RefreshToken: "ref"}))

	require.NoError(t, st.Clear())

	assert.False(t, st.Current().Authenticated())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// Clearing twice is not an error.
	require.NoError(t, st.Clear())
}

func TestMeta_PersistsAcrossReload(t *testing.T) {
	path := tempTokenPath(t)

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Save(Session{AccessToken: "acc"}))
	require.NoError(t, st.SetMeta("email", "ansel@example.com"))

	st2, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "ansel@example.com", st2.Meta("email"))
}

func TestStore_ConcurrentReadersAndWriter(t *testing.T) {
	st, err := Open(tempTokenPath(t))
	require.NoError(t, err)

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			if n%2 == 0 {
				_ = st.Save(Session{AccessToken: "acc", RefreshToken: "ref"})
				return
			}

			sess := st.Current()
			// A reader must never observe a half-updated pair.
			if sess.AccessToken != "" {
				assert.Equal(t, "ref", sess.RefreshToken)
			}
		}(i)
	}

	wg.Wait()
}
