// Package hdwallet derives ethereum signing keys from a BIP-39 mnemonic.
// Only the ETH side of BIP-44 is supported; the target chain has a single
// native asset and nothing else needs deriving.
package hdwallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// DefaultETHPath is the standard BIP-44 path of the first ethereum account.
const DefaultETHPath = "m/44'/60'/0'/0/0"

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// NewMnemonic generates a fresh BIP-39 mnemonic with the given entropy size
// in bits (128 → 12 words, 256 → 24 words).
func NewMnemonic(bits int) (string, error) {
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// Wallet 持有 BIP-32 主密钥，按路径派生以太坊私钥
type Wallet struct {
	masterKey *hdkeychain.ExtendedKey
}

// NewFromMnemonic validates the mnemonic and builds the HD master key.
func NewFromMnemonic(mnemonic, passphrase string) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	return NewFromSeed(seed)
}

// NewFromSeed builds the HD master key directly from a BIP-39 seed.
func NewFromSeed(seed []byte) (*Wallet, error) {
	if len(seed) < 16 || len(seed) > 64 {
		return nil, errors.New("invalid seed length")
	}
	// 版本字节对 ETH 无意义，沿用 mainnet params 即可
	masterKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w", err)
	}
	return &Wallet{masterKey: masterKey}, nil
}

// DerivePath 按 "m/44'/60'/0'/0/0" 形式的路径派生 ECDSA 私钥
func (w *Wallet) DerivePath(path string) (*ecdsa.PrivateKey, error) {
	indices, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	key := w.masterKey
	for _, index := range indices {
		key, err = key.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("derive child key: %w", err)
		}
	}

	privKey, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return privKey.ToECDSA(), nil
}

// Address returns the ethereum address of the key at path.
func (w *Wallet) Address(path string) (common.Address, error) {
	key, err := w.DerivePath(path)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

// parsePath 支持 m/44'/60'/0'/0/0 以及 44h 形式的 hardened 标记
func parsePath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "m/")
	if path == "" {
		return nil, errors.New("empty derivation path")
	}

	segments := strings.Split(path, "/")
	indices := make([]uint32, 0, len(segments))
	for _, segment := range segments {
		hardened := false
		if strings.HasSuffix(segment, "'") || strings.HasSuffix(segment, "h") {
			hardened = true
			segment = segment[:len(segment)-1]
		}

		val, err := strconv.ParseUint(segment, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid path segment %q: %w", segment, err)
		}

		index := uint32(val)
		if hardened {
			index += hdkeychain.HardenedKeyStart
		}
		indices = append(indices, index)
	}
	return indices, nil
}
