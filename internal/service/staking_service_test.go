package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"staking-core/internal/model"
	"staking-core/pkg/cache"
	"staking-core/pkg/errno"
	"staking-core/pkg/provider/cdp"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0x1111111111111111111111111111111111111111"

// fakeProvider 模拟外部 staking 服务商
type fakeProvider struct {
	op        *cdp.StakingOperation
	opErr     error
	stakeable *decimal.Decimal
	claimable *decimal.Decimal
	balErr    error

	lastAmount decimal.Decimal
	balCalls   int32
}

func (f *fakeProvider) BuildStakeOperation(ctx context.Context, address string, amount decimal.Decimal) (*cdp.StakingOperation, error) {
	f.lastAmount = amount
	return f.op, f.opErr
}

func (f *fakeProvider) BuildUnstakeOperation(ctx context.Context, address string, amount decimal.Decimal) (*cdp.StakingOperation, error) {
	f.lastAmount = amount
	return f.op, f.opErr
}

func (f *fakeProvider) BuildClaimOperation(ctx context.Context, address string, amount decimal.Decimal) (*cdp.StakingOperation, error) {
	f.lastAmount = amount
	return f.op, f.opErr
}

func (f *fakeProvider) StakeableBalance(ctx context.Context, address string) (*decimal.Decimal, error) {
	atomic.AddInt32(&f.balCalls, 1)
	return f.stakeable, f.balErr
}

func (f *fakeProvider) ClaimableBalance(ctx context.Context, address string) (*decimal.Decimal, error) {
	atomic.AddInt32(&f.balCalls, 1)
	return f.claimable, f.balErr
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func opWith(txs ...string) *cdp.StakingOperation {
	op := &cdp.StakingOperation{ID: "op-1"}
	for _, tx := range txs {
		op.Transactions = append(op.Transactions, json.RawMessage(tx))
	}
	return op
}

func TestBuildStake(t *testing.T) {
	p := &fakeProvider{op: opWith(`{"to":"0xabc","data":"0x01"}`)}
	s := NewStakingService(p, nil)

	resp, err := s.BuildStake(context.Background(), testAddress, "0.5")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, model.OperationStake, resp.Operation)
	assert.Equal(t, "0.5", resp.Amount)
	assert.True(t, resp.RequiresSignature)
	require.Len(t, resp.Transactions, 1)
	assert.True(t, decimal.RequireFromString("0.5").Equal(p.lastAmount))
}

func TestBuildStake_InvalidAmount(t *testing.T) {
	s := NewStakingService(&fakeProvider{}, nil)

	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{"Not a number", "abc", "Invalid amount"},
		{"Empty", "", "Invalid amount"},
		{"Zero", "0", "Amount must be positive"},
		{"Negative", "-1", "Amount must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.BuildStake(context.Background(), testAddress, tt.amount)
			require.Error(t, err)
			code, msg := errno.Decode(err)
			assert.Equal(t, 400, code)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestBuildStake_HexPayloadNormalized(t *testing.T) {
	// 服务商以 hex 编码字符串下发的交易在响应中必须已解码为 JSON 对象
	inner := `{"to":"0xabc","data":"0x01","value":"1"}`
	encoded := fmt.Sprintf("%q", hex.EncodeToString([]byte(inner)))

	p := &fakeProvider{op: opWith(encoded)}
	s := NewStakingService(p, nil)

	resp, err := s.BuildStake(context.Background(), testAddress, "0.5")
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 1)

	var tx map[string]any
	require.NoError(t, json.Unmarshal(resp.Transactions[0], &tx))
	assert.Equal(t, "0xabc", tx["to"])
}

func TestBuildUnstake_ProviderError(t *testing.T) {
	p := &fakeProvider{opErr: errors.New("validator exiting")}
	s := NewStakingService(p, nil)

	_, err := s.BuildUnstake(context.Background(), testAddress, "1")
	require.Error(t, err)
	// 服务商错误消息原样透传给调用方
	code, msg := errno.Decode(err)
	assert.Equal(t, 502, code)
	assert.Equal(t, "validator exiting", msg)
}

func TestBuildClaim(t *testing.T) {
	p := &fakeProvider{
		claimable: dec("0.32"),
		op:        opWith(`{"to":"0xabc","data":"0x01"}`),
	}
	s := NewStakingService(p, nil)

	resp, err := s.BuildClaim(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, model.OperationClaim, resp.Operation)
	// claim 金额由查询到的余额决定
	assert.Equal(t, "0.32", resp.Amount)
	assert.True(t, dec("0.32").Equal(p.lastAmount))
}

func TestBuildClaim_NothingToClaim(t *testing.T) {
	tests := []struct {
		name      string
		claimable *decimal.Decimal
	}{
		{"Zero balance", dec("0")},
		{"Balance absent", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStakingService(&fakeProvider{claimable: tt.claimable}, nil)

			_, err := s.BuildClaim(context.Background(), testAddress)
			require.Error(t, err)
			code, msg := errno.Decode(err)
			assert.Equal(t, 400, code)
			assert.Equal(t, "No rewards to claim", msg)
		})
	}
}

func TestInfo(t *testing.T) {
	p := &fakeProvider{stakeable: dec("1.5"), claimable: dec("0.02")}
	s := NewStakingService(p, nil)

	resp, err := s.Info(context.Background(), testAddress)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "See wallet", resp.Info.Balance)
	assert.Equal(t, "1.5", resp.Info.StakeableBalance)
	assert.Equal(t, "0.02", resp.Info.ClaimableBalance)
}

func TestInfo_AbsentBalancesDefaultToZero(t *testing.T) {
	s := NewStakingService(&fakeProvider{}, nil)

	resp, err := s.Info(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Info.StakeableBalance)
	assert.Equal(t, "0", resp.Info.ClaimableBalance)
}

func TestInfo_Cached(t *testing.T) {
	p := &fakeProvider{stakeable: dec("1"), claimable: dec("0.5")}
	s := NewStakingService(p, cache.NewMemoryCache(time.Minute, time.Minute))

	// 第一次查询触达服务商 (两个余额并发各一次)
	_, err := s.Info(context.Background(), testAddress)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&p.balCalls))

	// TTL 内的第二次查询命中缓存
	resp, err := s.Info(context.Background(), testAddress)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&p.balCalls))
	assert.Equal(t, "1", resp.Info.StakeableBalance)

	// 构建操作使缓存失效，下一次查询重新触达服务商
	p.op = opWith(`{"to":"0xabc","data":"0x01"}`)
	_, err = s.BuildStake(context.Background(), testAddress, "0.5")
	require.NoError(t, err)
	_, err = s.Info(context.Background(), testAddress)
	require.NoError(t, err)
	assert.EqualValues(t, 4, atomic.LoadInt32(&p.balCalls))
}

func TestInfo_ProviderError(t *testing.T) {
	s := NewStakingService(&fakeProvider{balErr: errors.New("rate limited")}, nil)

	_, err := s.Info(context.Background(), testAddress)
	require.Error(t, err)
	code, msg := errno.Decode(err)
	assert.Equal(t, 502, code)
	assert.Equal(t, "rate limited", msg)
}
