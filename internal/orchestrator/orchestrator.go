// Package orchestrator drives the client-side staking workflow:
// fetch info → build transaction → verify chain → sign and send → refresh.
// The view-model mutation of the original UI is reworked here as a single
// state value with guarded transitions, so the allowed state graph is
// enforceable and testable in isolation from any rendering.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"staking-core/internal/model"
	"staking-core/pkg/errno"
	"staking-core/pkg/logger"
	"staking-core/pkg/payload"
	"staking-core/pkg/wallet"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// State is the single workflow state value.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateReady
	StateBuilding
	StateTransactionReady
	StateSigning
	StateSent
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateBuilding:
		return "building"
	case StateTransactionReady:
		return "transaction_ready"
	case StateSigning:
		return "signing"
	case StateSent:
		return "sent"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// BuilderClient 是 orchestrator 对 Transaction Builder 网关的出口
// (internal/client.StakingClient 实现)
type BuilderClient interface {
	GetStakingInfo(ctx context.Context, address string) (*model.StakingInfo, error)
	BuildStake(ctx context.Context, address, amount string) (*model.BuildResponse, error)
	BuildUnstake(ctx context.Context, address, amount string) (*model.BuildResponse, error)
	BuildClaim(ctx context.Context, address string) (*model.BuildResponse, error)
}

// Options 控制目标链与两个可配置的等待时间
type Options struct {
	ChainID      int64
	SwitchSettle time.Duration // 请求切链后的稳定等待
	RefreshDelay time.Duration // 发送成功后刷新余额前的等待
}

// Orchestrator 是单会话的签名工作流，同一时刻最多一笔待签交易。
// 发送成功后的延迟刷新跑在自己的 goroutine 上，所以视图状态由内部互斥锁保护，
// 调用方无需额外同步。
type Orchestrator struct {
	client  BuilderClient
	wallet  wallet.Connector
	address string
	opts    Options

	mu      sync.Mutex
	state   State
	info    *model.StakingInfo
	pending *model.BuildResponse
	receipt *model.SignedTransactionReceipt
	lastErr error
}

func New(client BuilderClient, w wallet.Connector, address string, opts Options) *Orchestrator {
	return &Orchestrator{
		client:  client,
		wallet:  w,
		address: address,
		opts:    opts,
		state:   StateIdle,
	}
}

// State returns the current workflow state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Info returns the latest staking snapshot, nil before initialization.
func (o *Orchestrator) Info() *model.StakingInfo {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.info
}

// Pending returns the transaction waiting for signature, nil if none.
func (o *Orchestrator) Pending() *model.BuildResponse {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending
}

// Receipt returns the terminal artifact of the last successful send.
func (o *Orchestrator) Receipt() *model.SignedTransactionReceipt {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.receipt
}

// LastError returns the error recorded by the most recent failed transition.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Initialize 进入工作流: Idle → Initializing → Ready
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.address == "" {
		// 没有已连接的地址: 保持 Idle
		return o.fail(StateIdle, errno.ErrWallet.WithMessage("No wallet connected"))
	}
	if o.stable() != StateIdle {
		return fmt.Errorf("already initialized (state %s)", o.state)
	}

	o.transition(StateInitializing)
	info, err := o.client.GetStakingInfo(ctx, o.address)
	if err != nil {
		return o.fail(StateError, err)
	}

	o.info = info
	o.transition(StateReady)
	return nil
}

// BuildStake 构建 stake 交易: Ready → Building → TransactionReady
func (o *Orchestrator) BuildStake(ctx context.Context, amount string) error {
	return o.build(ctx, func(ctx context.Context) (*model.BuildResponse, error) {
		return o.client.BuildStake(ctx, o.address, amount)
	})
}

// BuildUnstake 构建 unstake 交易
func (o *Orchestrator) BuildUnstake(ctx context.Context, amount string) error {
	return o.build(ctx, func(ctx context.Context) (*model.BuildResponse, error) {
		return o.client.BuildUnstake(ctx, o.address, amount)
	})
}

// BuildClaim 构建 claim 交易，金额由服务端决定
func (o *Orchestrator) BuildClaim(ctx context.Context) error {
	return o.build(ctx, func(ctx context.Context) (*model.BuildResponse, error) {
		return o.client.BuildClaim(ctx, o.address)
	})
}

func (o *Orchestrator) build(ctx context.Context, buildFn func(context.Context) (*model.BuildResponse, error)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	// 未初始化的 orchestrator 拒绝构建请求
	switch o.stable() {
	case StateReady, StateTransactionReady:
	default:
		return fmt.Errorf("not initialized: build requires ready state, currently %s", o.state)
	}

	o.transition(StateBuilding)
	resp, err := buildFn(ctx)
	if err != nil {
		return o.fail(StateError, err)
	}

	o.pending = resp
	o.transition(StateTransactionReady)

	// 交易就绪后顺带刷新余额快照。尽力而为: 失败不回退状态。
	if err := o.refreshInfoLocked(ctx); err != nil {
		logger.Warn("刷新余额快照失败", zap.Error(err))
	}
	return nil
}

// SignAndSend 签名并广播: TransactionReady → Signing → Sent。
// 失败时待签交易保留，用户可重新触发。
func (o *Orchestrator) SignAndSend(ctx context.Context) (*model.SignedTransactionReceipt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stable() != StateTransactionReady || o.pending == nil || len(o.pending.Transactions) == 0 {
		return nil, fmt.Errorf("no transaction to sign (state %s)", o.state)
	}
	if o.wallet == nil {
		return nil, o.fail(StateError, errno.ErrWallet.WithMessage("No wallet connected"))
	}

	o.transition(StateSigning)

	// 1. 核对钱包当前链，必要时请求切链并等待稳定
	if err := o.ensureTargetChain(ctx); err != nil {
		return nil, o.fail(StateError, err)
	}

	// 2. 提取交易字段 (缺 to/data 在任何钱包调用之前就终止)
	params, err := o.walletParams()
	if err != nil {
		return nil, o.fail(StateError, err)
	}

	// 3. 交给钱包签名广播
	hash, err := o.wallet.SendTransaction(ctx, params)
	if err != nil {
		return nil, o.fail(StateError, errno.ErrWallet.WithMessage(err.Error()))
	}

	// 4. 成功: 清空待签交易，记录回执
	o.pending = nil
	o.receipt = &model.SignedTransactionReceipt{Hash: hash}
	o.transition(StateSent)

	// 5. 延迟刷新余额，fire-and-forget，失败只记日志不上抛
	go func() {
		time.Sleep(o.opts.RefreshDelay)
		if err := o.RefreshInfo(context.Background()); err != nil {
			logger.Warn("发送后刷新余额失败", zap.Error(err))
		}
	}()

	return o.receipt, nil
}

// RefreshInfo 重新拉取余额快照，整体替换当前视图状态
func (o *Orchestrator) RefreshInfo(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.refreshInfoLocked(ctx)
}

// refreshInfoLocked 要求调用方已持有 o.mu
func (o *Orchestrator) refreshInfoLocked(ctx context.Context) error {
	if o.address == "" || o.info == nil {
		return fmt.Errorf("not initialized")
	}
	info, err := o.client.GetStakingInfo(ctx, o.address)
	if err != nil {
		return err
	}
	o.info = info
	return nil
}

// ensureTargetChain 核对钱包选中的链；不一致时请求切换，
// 确认后再等待一段固定时间容忍钱包侧的异步切链。
func (o *Orchestrator) ensureTargetChain(ctx context.Context) error {
	current, err := o.wallet.ChainID(ctx)
	if err != nil {
		return errno.ErrWallet.WithMessage(err.Error())
	}
	if current == o.opts.ChainID {
		return nil
	}

	logger.Info("钱包不在目标链，请求切换",
		zap.Int64("current", current), zap.Int64("target", o.opts.ChainID))
	if err := o.wallet.SwitchChain(ctx, o.opts.ChainID); err != nil {
		return errno.ErrNetworkSwitch.WithMessage(err.Error())
	}
	time.Sleep(o.opts.SwitchSettle)
	return nil
}

// walletParams 规范化待签集合中的第一笔交易并提取钱包参数
func (o *Orchestrator) walletParams() (wallet.TxParams, error) {
	raw := o.pending.Transactions[0]

	// 交易可能以 hex 编码字符串形式到达，统一走规范化
	normalized, err := payload.Normalize(raw)
	if err != nil {
		return wallet.TxParams{}, errno.ErrMalformedPayload.WithMessage(err.Error())
	}

	var tx model.UnsignedTransaction
	if err := json.Unmarshal(normalized, &tx); err != nil {
		return wallet.TxParams{}, errno.ErrMalformedPayload.WithMessage("Invalid transaction data")
	}
	if err := tx.Validate(); err != nil {
		return wallet.TxParams{}, errno.ErrMalformedPayload.WithMessage(err.Error())
	}

	value, err := tx.Value.BigInt()
	if err != nil {
		return wallet.TxParams{}, errno.ErrMalformedPayload.WithMessage(err.Error())
	}

	params := wallet.TxParams{
		To:      common.HexToAddress(tx.Destination()),
		Data:    common.FromHex(tx.CallData()),
		Value:   value,
		ChainID: o.opts.ChainID,
	}

	// Gas limit 与 fee 字段无关，出现就转发
	if gas, err := tx.Gas.BigInt(); err != nil {
		return wallet.TxParams{}, errno.ErrMalformedPayload.WithMessage(err.Error())
	} else if gas != nil {
		params.Gas = gas.Uint64()
	}

	// Fee 策略: 任一 1559 字段出现则双双转发并忽略 legacy gasPrice
	maxFee, err := tx.MaxFeePerGas.BigInt()
	if err != nil {
		return wallet.TxParams{}, errno.ErrMalformedPayload.WithMessage(err.Error())
	}
	maxTip, err := tx.MaxPriorityFeePerGas.BigInt()
	if err != nil {
		return wallet.TxParams{}, errno.ErrMalformedPayload.WithMessage(err.Error())
	}
	if maxFee != nil || maxTip != nil {
		params.MaxFeePerGas = maxFee
		params.MaxPriorityFeePerGas = maxTip
	} else if gasPrice, err := tx.GasPrice.BigInt(); err != nil {
		return wallet.TxParams{}, errno.ErrMalformedPayload.WithMessage(err.Error())
	} else if gasPrice != nil {
		params.GasPrice = gasPrice
	}

	return params, nil
}

// stable 把当前状态折算成下一次触发所依据的稳定状态:
// Error 根据保留的数据回落到最近的可恢复点，Sent 之后可以继续构建。
func (o *Orchestrator) stable() State {
	switch o.state {
	case StateError:
		if o.pending != nil {
			return StateTransactionReady
		}
		if o.info != nil {
			return StateReady
		}
		return StateIdle
	case StateSent:
		return StateReady
	default:
		return o.state
	}
}

func (o *Orchestrator) transition(to State) {
	logger.Debug("工作流状态迁移",
		zap.String("from", o.state.String()), zap.String("to", to.String()))
	o.state = to
	if to != StateError {
		o.lastErr = nil
	}
}

// fail 记录错误并落入指定状态，错误消息原样上抛
func (o *Orchestrator) fail(to State, err error) error {
	o.lastErr = err
	o.state = to
	logger.Error("工作流操作失败", zap.String("state", to.String()), zap.Error(err))
	return err
}
