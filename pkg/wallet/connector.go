// Package wallet is the self-custody signing boundary. The orchestrator only
// sees the Connector interface; keys never leave this package.
package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TxParams 是 orchestrator 从未签名交易中提取出的、交给钱包签名广播的参数。
// Gas 定价字段遵循提取时的策略: 1559 字段与 legacy gasPrice 互斥。
type TxParams struct {
	To                   common.Address
	Data                 []byte
	Value                *big.Int
	Gas                  uint64
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	ChainID              int64
}

// Connector exposes the three wallet capabilities the signing workflow needs:
// the currently selected chain, a chain-switch request, and a
// sign-and-broadcast call returning the transaction hash.
type Connector interface {
	ChainID(ctx context.Context) (int64, error)
	SwitchChain(ctx context.Context, chainID int64) error
	SendTransaction(ctx context.Context, params TxParams) (string, error)
}
