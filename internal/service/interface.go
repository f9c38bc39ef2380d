package service

import (
	"context"

	"staking-core/internal/model"
	"staking-core/pkg/provider/cdp"

	"github.com/shopspring/decimal"
)

// StakingProvider 是外部 staking 服务商的最小接口 (pkg/provider/cdp 实现)。
// 余额返回 nil 表示服务商未报告该余额。
type StakingProvider interface {
	BuildStakeOperation(ctx context.Context, address string, amount decimal.Decimal) (*cdp.StakingOperation, error)
	BuildUnstakeOperation(ctx context.Context, address string, amount decimal.Decimal) (*cdp.StakingOperation, error)
	BuildClaimOperation(ctx context.Context, address string, amount decimal.Decimal) (*cdp.StakingOperation, error)
	StakeableBalance(ctx context.Context, address string) (*decimal.Decimal, error)
	ClaimableBalance(ctx context.Context, address string) (*decimal.Decimal, error)
}

// Staking 是 Transaction Builder 对 handler 层暴露的接口
type Staking interface {
	BuildStake(ctx context.Context, address, amount string) (*model.BuildResponse, error)
	BuildUnstake(ctx context.Context, address, amount string) (*model.BuildResponse, error)
	BuildClaim(ctx context.Context, address string) (*model.BuildResponse, error)
	Info(ctx context.Context, address string) (*model.InfoResponse, error)
}
