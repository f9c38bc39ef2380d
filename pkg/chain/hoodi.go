package chain

import "fmt"

// Hoodi 测试网是唯一支持的目标链。
// 所有 staking 操作都假定在这条链上执行，ChainID 用于 EIP-155 防重放。
const (
	HoodiChainID     int64  = 560048
	HoodiName        string = "Hoodi"
	HoodiRpcURL      string = "https://rpc.hoodi.ethpandaops.io"
	HoodiWsURL       string = "wss://rpc.hoodi.ethpandaops.io"
	HoodiExplorerURL string = "https://hoodi.etherscan.io"

	NativeSymbol   string = "ETH"
	NativeDecimals int    = 18
)

// ExplorerTxURL returns the block explorer link for a transaction hash.
func ExplorerTxURL(hash string) string {
	return fmt.Sprintf("%s/tx/%s", HoodiExplorerURL, hash)
}
