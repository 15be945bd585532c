package unittest

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/rpc"
)

// DialEngineAPI creates an authenticated RPC client for the Engine API.
// It reads the hex-encoded 32 byte JWT secret from jwtPath.
func DialEngineAPI(ctx context.Context, endpoint string, jwtPath string) (*rpc.Client, error) {
	raw, err := os.ReadFile(jwtPath)
	if err != nil {
		return nil, fmt.Errorf("read jwt: %w", err)
	}

	jwtBytes, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(string(raw)), "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode jwt: %w", err)
	}
	if len(jwtBytes) != 32 {
		return nil, fmt.Errorf("jwt secret must be 32 bytes, got %d", len(jwtBytes))
	}

	var secret [32]byte
	copy(secret[:], jwtBytes)
	return DialAuthenticated(ctx, endpoint, secret)
}

// DialAuthenticated creates an RPC client signing every request with a JWT derived from secret.
func DialAuthenticated(ctx context.Context, endpoint string, secret [32]byte) (*rpc.Client, error) {
	return rpc.DialOptions(ctx, endpoint, rpc.WithHTTPAuth(node.NewJWTAuth(secret)))
}
