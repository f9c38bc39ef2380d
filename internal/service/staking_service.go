package service

import (
	"context"
	"time"

	"staking-core/internal/model"
	"staking-core/pkg/cache"
	"staking-core/pkg/errno"
	"staking-core/pkg/logger"
	"staking-core/pkg/monitor"
	"staking-core/pkg/payload"
	"staking-core/pkg/provider/cdp"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// infoCacheTTL 远小于客户端发送后的刷新延迟，保证刷新能看到新余额
const infoCacheTTL = 3 * time.Second

// StakingService 是服务端的 Transaction Builder: 接收 StakeIntent，委托服务商
// 构建未签名交易或查询余额，并把返回的 payload 规范化为统一的 JSON 形态。
// 除了一层短 TTL 的余额缓存 (服务商对余额查询限流)，每次请求无状态。
type StakingService struct {
	provider StakingProvider
	cache    cache.Cache // 可为 nil
}

func NewStakingService(provider StakingProvider, c cache.Cache) *StakingService {
	return &StakingService{provider: provider, cache: c}
}

// BuildStake 构建 stake 未签名交易
func (s *StakingService) BuildStake(ctx context.Context, address, amount string) (*model.BuildResponse, error) {
	return s.buildOperation(ctx, model.OperationStake, address, amount, s.provider.BuildStakeOperation)
}

// BuildUnstake 构建 unstake 未签名交易
func (s *StakingService) BuildUnstake(ctx context.Context, address, amount string) (*model.BuildResponse, error) {
	return s.buildOperation(ctx, model.OperationUnstake, address, amount, s.provider.BuildUnstakeOperation)
}

// BuildClaim 构建领取奖励的未签名交易。
// 金额由服务端以查询到的 claimable 余额决定，客户端传入的 amount 被忽略。
func (s *StakingService) BuildClaim(ctx context.Context, address string) (*model.BuildResponse, error) {
	// 1. 先查询可领取余额
	claimable, err := s.provider.ClaimableBalance(ctx, address)
	if err != nil {
		return nil, providerError(err)
	}

	// 2. 业务规则: 余额为零或缺失 → 无可领取
	if claimable == nil || claimable.IsZero() {
		return nil, errno.ErrNothingToClaim
	}

	// 3. 以查询到的余额为金额构建 claim 操作
	op, err := s.provider.BuildClaimOperation(ctx, address, *claimable)
	if err != nil {
		monitor.ObserveBuildFailure(model.OperationClaim)
		return nil, providerError(err)
	}

	s.invalidateInfo(ctx, address)
	return s.buildResponse(model.OperationClaim, claimable.String(), op)
}

// Info 并发查询 stakeable 与 claimable 余额，两者之间没有顺序依赖。
// 服务商未报告的余额一律归一化为 "0"。
func (s *StakingService) Info(ctx context.Context, address string) (*model.InfoResponse, error) {
	if s.cache != nil {
		var cached model.InfoResponse
		if err := s.cache.Get(ctx, infoCacheKey(address), &cached); err == nil {
			return &cached, nil
		}
	}

	var stakeable, claimable *decimal.Decimal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stakeable, err = s.provider.StakeableBalance(gctx, address)
		return err
	})
	g.Go(func() error {
		var err error
		claimable, err = s.provider.ClaimableBalance(gctx, address)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, providerError(err)
	}

	resp := &model.InfoResponse{
		Success: true,
		Info: model.StakingInfo{
			Balance:          "See wallet",
			StakeableBalance: balanceString(stakeable),
			ClaimableBalance: balanceString(claimable),
		},
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, infoCacheKey(address), resp, infoCacheTTL); err != nil {
			logger.Warn("写入余额缓存失败", zap.Error(err))
		}
	}
	return resp, nil
}

type operationBuilder func(ctx context.Context, address string, amount decimal.Decimal) (*cdp.StakingOperation, error)

func (s *StakingService) buildOperation(ctx context.Context, operation, address, amount string, build operationBuilder) (*model.BuildResponse, error) {
	// 1. 解析十进制金额
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, errno.ErrInvalidRequest.WithMessage("Invalid amount")
	}
	if parsed.Sign() <= 0 {
		return nil, errno.ErrInvalidRequest.WithMessage("Amount must be positive")
	}

	// 2. 委托服务商构建操作
	op, err := build(ctx, address, parsed)
	if err != nil {
		monitor.ObserveBuildFailure(operation)
		return nil, providerError(err)
	}

	s.invalidateInfo(ctx, address)
	return s.buildResponse(operation, amount, op)
}

// invalidateInfo 丢弃该地址的余额缓存，构建操作发生后余额即将变化
func (s *StakingService) invalidateInfo(ctx context.Context, address string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, infoCacheKey(address)); err != nil {
		logger.Warn("清除余额缓存失败", zap.Error(err))
	}
}

func infoCacheKey(address string) string {
	return "staking:info:" + address
}

// buildResponse 统一规范化交易集合并组装响应
func (s *StakingService) buildResponse(operation, amount string, op *cdp.StakingOperation) (*model.BuildResponse, error) {
	transactions, err := payload.NormalizeAll(op.Transactions)
	if err != nil {
		logger.Error("规范化交易 payload 失败", zap.String("operation", operation), zap.Error(err))
		monitor.ObserveBuildFailure(operation)
		return nil, errno.ErrMalformedPayload.WithMessage(err.Error())
	}

	monitor.ObserveOperationBuilt(operation)

	return &model.BuildResponse{
		Success:           true,
		Operation:         operation,
		Amount:            amount,
		Transactions:      transactions,
		RequiresSignature: true,
	}, nil
}

// providerError 把服务商错误映射为 ProviderError，消息原样透传
func providerError(err error) error {
	return errno.ErrProvider.WithMessage(err.Error())
}

func balanceString(d *decimal.Decimal) string {
	if d == nil {
		return "0"
	}
	return d.String()
}
