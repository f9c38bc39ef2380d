package hdwallet

import (
	"strings"
	"testing"

	"github.com/tyler-smith/go-bip39"
)

// 标准 BIP-39 测试向量
const vectorMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestNewMnemonic(t *testing.T) {
	mnemonic, err := NewMnemonic(128)
	if err != nil {
		t.Fatalf("NewMnemonic failed: %v", err)
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		t.Errorf("Generated mnemonic is invalid: %s", mnemonic)
	}

	mnemonic24, err := NewMnemonic(256)
	if err != nil {
		t.Fatalf("NewMnemonic(256) failed: %v", err)
	}
	if got := len(strings.Fields(mnemonic24)); got != 24 {
		t.Errorf("Expected 24 words, got %d", got)
	}
}

func TestNewFromMnemonic_Invalid(t *testing.T) {
	_, err := NewFromMnemonic("definitely not a valid mnemonic phrase", "")
	if err != ErrInvalidMnemonic {
		t.Errorf("Expected ErrInvalidMnemonic, got %v", err)
	}
}

func TestDeriveAddress_Vector(t *testing.T) {
	w, err := NewFromMnemonic(vectorMnemonic, "")
	if err != nil {
		t.Fatalf("NewFromMnemonic failed: %v", err)
	}

	// 已知向量: 第一个 ETH 账户地址
	addr, err := w.Address(DefaultETHPath)
	if err != nil {
		t.Fatalf("Address failed: %v", err)
	}
	expected := "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
	if addr.Hex() != expected {
		t.Errorf("Address mismatch. Expected %s, got %s", expected, addr.Hex())
	}
}

func TestDerivePath_Deterministic(t *testing.T) {
	w, _ := NewFromMnemonic(vectorMnemonic, "")

	key1, err := w.DerivePath(DefaultETHPath)
	if err != nil {
		t.Fatalf("DerivePath failed: %v", err)
	}
	key2, _ := w.DerivePath(DefaultETHPath)
	if key1.D.Cmp(key2.D) != 0 {
		t.Error("Same path derived different keys")
	}

	// 不同路径派生不同私钥
	other, err := w.DerivePath("m/44'/60'/0'/0/1")
	if err != nil {
		t.Fatalf("DerivePath index 1 failed: %v", err)
	}
	if key1.D.Cmp(other.D) == 0 {
		t.Error("Different paths derived the same key")
	}
}

func TestParsePath(t *testing.T) {
	// hardened 标记支持 ' 与 h 两种写法
	a, err := parsePath("m/44'/60'/0'/0/0")
	if err != nil {
		t.Fatalf("parsePath failed: %v", err)
	}
	b, err := parsePath("m/44h/60h/0h/0/0")
	if err != nil {
		t.Fatalf("parsePath with h suffix failed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Segment %d mismatch: %d vs %d", i, a[i], b[i])
		}
	}

	if _, err := parsePath("m/"); err == nil {
		t.Error("Expected error for empty path")
	}
	if _, err := parsePath("m/44'/abc"); err == nil {
		t.Error("Expected error for non-numeric segment")
	}
}
