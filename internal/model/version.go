package model

import (
	"fmt"
	"runtime"
)

const (
	// ClientCode is the two letter client code reported through engine_getClientVersionV1.
	ClientCode = "LN"

	// ClientName is the client name reported through engine_getClientVersionV1 and web3_clientVersion.
	ClientName = "go-eth-rpcnode"

	// ClientVersion is the semantic version of this build.
	ClientVersion = "0.1.0"
)

// GitCommit is the commit this binary was built from, set with -ldflags at build time.
var GitCommit = "00000000"

// ShortCommit returns the first four bytes of GitCommit as expected by the Engine API.
func ShortCommit() string {
	if len(GitCommit) > 8 {
		return GitCommit[:8]
	}
	return GitCommit
}

// Web3ClientVersionString returns the web3_clientVersion identity, e.g. go-eth-rpcnode/v0.1.0/linux-amd64/go1.24.
func Web3ClientVersionString() string {
	return fmt.Sprintf("%s/v%s/%s-%s/%s", ClientName, ClientVersion, runtime.GOOS, runtime.GOARCH, runtime.Version())
}
