package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"staking-core/internal/model"
	"staking-core/pkg/errno"
	"staking-core/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStaking 模拟 service 层
type fakeStaking struct {
	build *model.BuildResponse
	info  *model.InfoResponse
	err   error
}

func (f *fakeStaking) BuildStake(ctx context.Context, address, amount string) (*model.BuildResponse, error) {
	return f.build, f.err
}

func (f *fakeStaking) BuildUnstake(ctx context.Context, address, amount string) (*model.BuildResponse, error) {
	return f.build, f.err
}

func (f *fakeStaking) BuildClaim(ctx context.Context, address string) (*model.BuildResponse, error) {
	return f.build, f.err
}

func (f *fakeStaking) Info(ctx context.Context, address string) (*model.InfoResponse, error) {
	return f.info, f.err
}

func setupRouter(s *fakeStaking) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator.Init()
	r := gin.New()
	r.POST("/api/v1/stake", NewStakeHandler(s).Handle)
	return r
}

func doStake(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stake", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestStakeHandler_Stake(t *testing.T) {
	s := &fakeStaking{build: &model.BuildResponse{
		Success:           true,
		Operation:         model.OperationStake,
		Amount:            "0.1",
		Transactions:      []json.RawMessage{json.RawMessage(`{"to":"0xabc","data":"0x01"}`)},
		RequiresSignature: true,
	}}
	r := setupRouter(s)

	w := doStake(t, r, `{"action":"stake","address":"0x1111111111111111111111111111111111111111","amount":"0.1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp model.BuildResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "stake", resp.Operation)
	assert.True(t, resp.RequiresSignature)
	require.Len(t, resp.Transactions, 1)
}

func TestStakeHandler_Info(t *testing.T) {
	s := &fakeStaking{info: &model.InfoResponse{
		Success: true,
		Info: model.StakingInfo{
			Balance:          "See wallet",
			StakeableBalance: "2",
			ClaimableBalance: "0",
		},
	}}
	r := setupRouter(s)

	w := doStake(t, r, `{"action":"info","address":"0x1111111111111111111111111111111111111111"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp model.InfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "2", resp.Info.StakeableBalance)
}

func TestStakeHandler_MissingParameters(t *testing.T) {
	r := setupRouter(&fakeStaking{})

	tests := []struct {
		name string
		body string
	}{
		{"Missing action", `{"address":"0x1111111111111111111111111111111111111111"}`},
		{"Missing address", `{"action":"stake"}`},
		{"Empty body", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doStake(t, r, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Missing required parameters", errorMessage(t, w))
		})
	}
}

func TestStakeHandler_InvalidAction(t *testing.T) {
	r := setupRouter(&fakeStaking{})

	// 未知 action 必须到达业务分发层，而不是被参数绑定拦下
	w := doStake(t, r, `{"action":"redelegate","address":"0x1111111111111111111111111111111111111111"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid action", errorMessage(t, w))
}

func TestStakeHandler_NothingToClaim(t *testing.T) {
	r := setupRouter(&fakeStaking{err: errno.ErrNothingToClaim})

	w := doStake(t, r, `{"action":"claim","address":"0x1111111111111111111111111111111111111111"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No rewards to claim", errorMessage(t, w))
}

func TestStakeHandler_ProviderError(t *testing.T) {
	r := setupRouter(&fakeStaking{err: errno.ErrProvider.WithMessage("staking provider timeout")})

	w := doStake(t, r, `{"action":"stake","address":"0x1111111111111111111111111111111111111111","amount":"1"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	// 服务商错误消息原样透传
	assert.Equal(t, "staking provider timeout", errorMessage(t, w))
}

func TestStakeHandler_InvalidAddress(t *testing.T) {
	r := setupRouter(&fakeStaking{})

	w := doStake(t, r, `{"action":"stake","address":"not-an-address","amount":"1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
