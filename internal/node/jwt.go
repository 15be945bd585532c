package node

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// JWTFileName is the name of the secret file created by GenerateJWTSecret.
const JWTFileName = "jwt.hex"

// GenerateJWTSecret creates a 32-byte random JWT secret for Engine API auth.
// The secret is written to a file named JWTFileName in dataDir with 0600 permissions;
// dataDir is created if missing. Returns the path to the secret file and the secret.
func GenerateJWTSecret(dataDir string) (string, [32]byte, error) {
	var secret [32]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return "", secret, fmt.Errorf("generate jwt secret: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", secret, fmt.Errorf("create data dir: %w", err)
	}

	jwtPath := filepath.Join(dataDir, JWTFileName)
	content := hex.EncodeToString(secret[:])
	if err := os.WriteFile(jwtPath, []byte(content), 0600); err != nil {
		return "", secret, fmt.Errorf("write jwt secret: %w", err)
	}

	return jwtPath, secret, nil
}

// ReadJWTSecret reads a hex-encoded 32-byte secret, with or without 0x prefix.
func ReadJWTSecret(path string) ([32]byte, error) {
	var secret [32]byte

	raw, err := os.ReadFile(path)
	if err != nil {
		return secret, fmt.Errorf("read jwt secret: %w", err)
	}
	decoded, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(string(raw)), "0x"))
	if err != nil {
		return secret, fmt.Errorf("decode jwt secret: %w", err)
	}
	if len(decoded) != len(secret) {
		return secret, fmt.Errorf("jwt secret must be %d bytes, got %d", len(secret), len(decoded))
	}
	copy(secret[:], decoded)
	return secret, nil
}

// LoadOrGenerateJWTSecret reads the secret at path, or generates one in dataDir when path is empty.
func LoadOrGenerateJWTSecret(path, dataDir string) (string, [32]byte, error) {
	if path == "" {
		return GenerateJWTSecret(dataDir)
	}
	secret, err := ReadJWTSecret(path)
	return path, secret, err
}
