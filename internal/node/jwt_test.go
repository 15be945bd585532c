package node

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thep2p/go-eth-rpcnode/internal/unittest"
)

// TestGenerateJWTSecret_Success validates that the secret file is created with the
// returned secret in hex and with owner-only permissions.
func TestGenerateJWTSecret_Success(t *testing.T) {
	tempDir := unittest.NewTempDir(t)

	jwtPath, secret, err := GenerateJWTSecret(tempDir.Path())
	require.NoError(t, err, "GenerateJWTSecret should succeed")
	require.FileExists(t, jwtPath, "JWT file should exist")
	require.Equal(t, JWTFileName, filepath.Base(jwtPath), "JWT file should be named jwt.hex")
	require.NotEqual(t, [32]byte{}, secret)

	fileInfo, err := os.Stat(jwtPath)
	require.NoError(t, err, "Should be able to stat JWT file")
	require.Equal(t, os.FileMode(0600), fileInfo.Mode().Perm(), "JWT file should have 0600 permissions")

	content, err := os.ReadFile(jwtPath)
	require.NoError(t, err, "Should be able to read JWT file")
	require.Len(t, content, 64, "JWT secret should be 64 hex characters (32 bytes)")
	require.Equal(t, hex.EncodeToString(secret[:]), string(content))
}

// TestGenerateJWTSecret_CreatesDirectory validates that missing parent directories are created.
func TestGenerateJWTSecret_CreatesDirectory(t *testing.T) {
	tempDir := unittest.NewTempDir(t)
	dataDir := filepath.Join(tempDir.Path(), "nonexistent", "nested", "dir")

	_, err := os.Stat(dataDir)
	require.True(t, os.IsNotExist(err), "Directory should not exist initially")

	jwtPath, _, err := GenerateJWTSecret(dataDir)
	require.NoError(t, err, "GenerateJWTSecret should create parent directory")

	dirInfo, err := os.Stat(dataDir)
	require.NoError(t, err, "Directory should exist after GenerateJWTSecret")
	require.True(t, dirInfo.IsDir(), "Path should be a directory")
	require.FileExists(t, jwtPath, "JWT file should exist in new directory")
}

// TestGenerateJWTSecret_Regenerates validates that generating again in the same directory
// overwrites the previous secret.
func TestGenerateJWTSecret_Regenerates(t *testing.T) {
	tempDir := unittest.NewTempDir(t)

	jwtPath1, secret1, err := GenerateJWTSecret(tempDir.Path())
	require.NoError(t, err)
	jwtPath2, secret2, err := GenerateJWTSecret(tempDir.Path())
	require.NoError(t, err)

	require.Equal(t, jwtPath1, jwtPath2, "JWT paths should be identical")
	require.NotEqual(t, secret1, secret2, "JWT secrets should be different after regeneration")

	stored, err := ReadJWTSecret(jwtPath2)
	require.NoError(t, err)
	require.Equal(t, secret2, stored)
}

func TestReadJWTSecret(t *testing.T) {
	tempDir := unittest.NewTempDir(t)
	secret := unittest.SecretFixture(t)

	t.Run("prefixed hex with newline", func(t *testing.T) {
		path := filepath.Join(tempDir.Path(), "prefixed.hex")
		require.NoError(t, os.WriteFile(path, []byte("0x"+hex.EncodeToString(secret[:])+"\n"), 0600))

		read, err := ReadJWTSecret(path)
		require.NoError(t, err)
		require.Equal(t, secret, read)
	})

	t.Run("wrong length", func(t *testing.T) {
		path := filepath.Join(tempDir.Path(), "short.hex")
		require.NoError(t, os.WriteFile(path, []byte(hex.EncodeToString(secret[:16])), 0600))

		_, err := ReadJWTSecret(path)
		require.ErrorContains(t, err, "must be 32 bytes")
	})

	t.Run("not hex", func(t *testing.T) {
		path := filepath.Join(tempDir.Path(), "garbage.hex")
		require.NoError(t, os.WriteFile(path, []byte("not a secret"), 0600))

		_, err := ReadJWTSecret(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadJWTSecret(filepath.Join(tempDir.Path(), "missing.hex"))
		require.Error(t, err)
	})
}

func TestLoadOrGenerateJWTSecret(t *testing.T) {
	tempDir := unittest.NewTempDir(t)

	generatedPath, generated, err := LoadOrGenerateJWTSecret("", tempDir.Path())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(tempDir.Path(), JWTFileName), generatedPath)

	loadedPath, loaded, err := LoadOrGenerateJWTSecret(generatedPath, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, generatedPath, loadedPath)
	require.Equal(t, generated, loaded)
}
