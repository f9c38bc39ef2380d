package model

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// StakeIntent 一次用户动作对应一次请求，不可变，单次往返后丢弃
type StakeIntent struct {
	Operation string `json:"action"`
	Address   string `json:"address"`
	Amount    string `json:"amount,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

// Staking 操作标签
const (
	OperationStake   = "stake"
	OperationUnstake = "unstake"
	OperationClaim   = "claim"
	OperationInfo    = "info"
)

// StakingInfo 按需刷新的余额快照，每次刷新整体替换，不保留历史
type StakingInfo struct {
	Balance          string `json:"balance"`
	StakeableBalance string `json:"stakeableBalance"`
	ClaimableBalance string `json:"claimableBalance"`
}

// SignedTransactionReceipt 是工作流的终态产物，仅存在于当前会话
type SignedTransactionReceipt struct {
	Hash string `json:"hash"`
}

// Quantity is a JSON value that may arrive as a decimal string, a 0x-hex
// string, or a bare number. Provider payloads are not consistent about this.
type Quantity string

func (q *Quantity) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*q = Quantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*q = Quantity(n.String())
	return nil
}

// BigInt parses the quantity as a big integer. Both 0x-prefixed hex and
// plain decimal forms are accepted. An empty quantity parses as nil.
func (q Quantity) BigInt() (*big.Int, error) {
	s := string(q)
	if s == "" {
		return nil, nil
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("invalid quantity %q", string(q))
	}
	return v, nil
}

// UnsignedTransaction is the normalized transaction object handed to the
// wallet. Field aliases (to/toAddressId, input/data) follow the provider's
// two serialization surfaces.
type UnsignedTransaction struct {
	To                   string   `json:"to,omitempty"`
	ToAddressID          string   `json:"toAddressId,omitempty"`
	Input                string   `json:"input,omitempty"`
	Data                 string   `json:"data,omitempty"`
	Value                Quantity `json:"value,omitempty"`
	Gas                  Quantity `json:"gas,omitempty"`
	GasPrice             Quantity `json:"gasPrice,omitempty"`
	MaxFeePerGas         Quantity `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas Quantity `json:"maxPriorityFeePerGas,omitempty"`
	Nonce                Quantity `json:"nonce,omitempty"`
	ChainID              Quantity `json:"chainId,omitempty"`
}

// Destination returns the target address, preferring `to` over `toAddressId`.
func (t *UnsignedTransaction) Destination() string {
	if t.To != "" {
		return t.To
	}
	return t.ToAddressID
}

// CallData returns the contract call data, preferring `input` over `data`.
func (t *UnsignedTransaction) CallData() string {
	if t.Input != "" {
		return t.Input
	}
	return t.Data
}

// Validate enforces the submission invariant: an unsigned transaction must
// carry both a destination address and call data. A miss is terminal, not
// retryable.
func (t *UnsignedTransaction) Validate() error {
	if t.Destination() == "" || t.CallData() == "" {
		return fmt.Errorf("transaction missing required fields (to/data)")
	}
	return nil
}

// BuildResponse 是 stake/unstake/claim 构建动作的成功响应
type BuildResponse struct {
	Success           bool              `json:"success"`
	Operation         string            `json:"operation"`
	Amount            string            `json:"amount"`
	Transactions      []json.RawMessage `json:"transactions"`
	RequiresSignature bool              `json:"requiresSignature"`
}

// InfoResponse 是 info 查询的成功响应
type InfoResponse struct {
	Success bool        `json:"success"`
	Info    StakingInfo `json:"info"`
}
