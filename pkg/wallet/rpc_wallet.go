package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"staking-core/pkg/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// RPCWallet 用本地派生的私钥签名交易，并通过 RPC 节点广播。
// "切链" 对这种钱包而言就是重连目标链的 RPC 端点并核对 eth_chainId。
type RPCWallet struct {
	mu         sync.Mutex
	privateKey *ecdsa.PrivateKey
	address    common.Address
	endpoints  map[int64]string // chainID -> RPC URL
	client     *ethclient.Client
	chainID    int64
}

// NewRPCWallet 连接 initialChain 对应的端点并校验链 ID
func NewRPCWallet(privateKey *ecdsa.PrivateKey, endpoints map[int64]string, initialChain int64) (*RPCWallet, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("no signing key")
	}

	w := &RPCWallet{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		endpoints:  endpoints,
	}
	if err := w.connect(context.Background(), initialChain); err != nil {
		return nil, err
	}
	return w, nil
}

// Address returns the wallet's signing address.
func (w *RPCWallet) Address() common.Address {
	return w.address
}

// ChainID returns the chain the wallet is currently connected to.
func (w *RPCWallet) ChainID(ctx context.Context) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.client == nil {
		return 0, fmt.Errorf("wallet not connected")
	}
	return w.chainID, nil
}

// SwitchChain reconnects to the endpoint configured for chainID and verifies
// the node actually serves that chain.
func (w *RPCWallet) SwitchChain(ctx context.Context, chainID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connect(ctx, chainID)
}

// SendTransaction fills in the nonce (and any gas values the params leave
// unset), signs per the fee fields present, broadcasts and returns the hash.
func (w *RPCWallet) SendTransaction(ctx context.Context, params TxParams) (string, error) {
	w.mu.Lock()
	client, chainID := w.client, w.chainID
	w.mu.Unlock()

	if client == nil {
		return "", fmt.Errorf("wallet not connected")
	}
	if chainID != params.ChainID {
		return "", fmt.Errorf("wallet is on chain %d, transaction targets chain %d", chainID, params.ChainID)
	}

	// 1. Nonce
	nonce, err := client.PendingNonceAt(ctx, w.address)
	if err != nil {
		return "", fmt.Errorf("fetch nonce: %w", err)
	}

	value := params.Value
	if value == nil {
		value = big.NewInt(0)
	}

	// 2. Gas Limit: 未给出时向节点估算
	gasLimit := params.Gas
	if gasLimit == 0 {
		gasLimit, err = client.EstimateGas(ctx, ethereum.CallMsg{
			From:  w.address,
			To:    &params.To,
			Value: value,
			Data:  params.Data,
		})
		if err != nil {
			return "", fmt.Errorf("estimate gas: %w", err)
		}
	}

	// 3. 按 fee 字段组装交易: 1559 优先，其次 legacy，都缺失时用节点建议值
	tx, err := w.assembleTx(ctx, client, params, nonce, gasLimit, value)
	if err != nil {
		return "", err
	}

	// 4. 签名并广播
	signer := types.LatestSignerForChainID(big.NewInt(params.ChainID))
	signedTx, err := types.SignTx(tx, signer, w.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	if err := client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("broadcast failed: %w", err)
	}

	hash := signedTx.Hash().Hex()
	logger.Info("交易已广播", zap.String("hash", hash), zap.Int64("chain_id", params.ChainID))
	return hash, nil
}

func (w *RPCWallet) assembleTx(ctx context.Context, client *ethclient.Client, params TxParams, nonce, gasLimit uint64, value *big.Int) (*types.Transaction, error) {
	if params.MaxFeePerGas != nil || params.MaxPriorityFeePerGas != nil {
		tip := params.MaxPriorityFeePerGas
		feeCap := params.MaxFeePerGas
		var err error
		if tip == nil {
			if tip, err = client.SuggestGasTipCap(ctx); err != nil {
				return nil, fmt.Errorf("suggest gas tip: %w", err)
			}
		}
		if feeCap == nil {
			if feeCap, err = client.SuggestGasPrice(ctx); err != nil {
				return nil, fmt.Errorf("suggest gas price: %w", err)
			}
		}
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   big.NewInt(params.ChainID),
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gasLimit,
			To:        &params.To,
			Value:     value,
			Data:      params.Data,
		}), nil
	}

	gasPrice := params.GasPrice
	if gasPrice == nil {
		var err error
		if gasPrice, err = client.SuggestGasPrice(ctx); err != nil {
			return nil, fmt.Errorf("suggest gas price: %w", err)
		}
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &params.To,
		Value:    value,
		Data:     params.Data,
	}), nil
}

// connect 要求持有锁或在构造期调用
func (w *RPCWallet) connect(ctx context.Context, chainID int64) error {
	rpcURL, ok := w.endpoints[chainID]
	if !ok {
		return fmt.Errorf("no RPC endpoint configured for chain %d", chainID)
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", rpcURL, err)
	}

	nodeChainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return fmt.Errorf("query chain id: %w", err)
	}
	if nodeChainID.Int64() != chainID {
		client.Close()
		return fmt.Errorf("endpoint %s serves chain %d, expected %d", rpcURL, nodeChainID.Int64(), chainID)
	}

	if w.client != nil {
		w.client.Close()
	}
	w.client = client
	w.chainID = chainID
	return nil
}
