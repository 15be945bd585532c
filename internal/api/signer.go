package api

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

const (
	// DevSignerCount is the number of accounts injected in development mode.
	DevSignerCount = 20

	// DevMnemonic is the well-known development mnemonic the signer keys are derived from.
	// Never fund these accounts on a public network.
	DevMnemonic = "test test test test test test test test test test test junk"
)

// DevSigners holds deterministic development-only signing keys.
type DevSigners struct {
	addresses []common.Address
	keys      map[common.Address]*ecdsa.PrivateKey
}

// NewDevSigners derives count keys from DevMnemonic. The i-th key is the keccak hash of the
// mnemonic seed and the big-endian index, so every node derives the same accounts.
func NewDevSigners(count int) (*DevSigners, error) {
	seed := bip39.NewSeed(DevMnemonic, "")

	s := &DevSigners{
		addresses: make([]common.Address, 0, count),
		keys:      make(map[common.Address]*ecdsa.PrivateKey, count),
	}
	for i := 0; i < count; i++ {
		var index [4]byte
		binary.BigEndian.PutUint32(index[:], uint32(i))

		key, err := crypto.ToECDSA(crypto.Keccak256(seed, index[:]))
		if err != nil {
			return nil, fmt.Errorf("derive dev signer %d: %w", i, err)
		}
		addr := crypto.PubkeyToAddress(key.PublicKey)
		s.addresses = append(s.addresses, addr)
		s.keys[addr] = key
	}
	return s, nil
}

// Addresses returns the signer addresses in derivation order.
func (s *DevSigners) Addresses() []common.Address {
	return append([]common.Address{}, s.addresses...)
}

// SignText signs the EIP-191 personal message hash of data with the key of addr.
func (s *DevSigners) SignText(addr common.Address, data []byte) ([]byte, error) {
	key, ok := s.keys[addr]
	if !ok {
		return nil, fmt.Errorf("unknown account %s", addr.Hex())
	}
	sig, err := crypto.Sign(accounts.TextHash(data), key)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}
