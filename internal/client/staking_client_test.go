package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"staking-core/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0x1111111111111111111111111111111111111111"

func gatewayStub(t *testing.T, handler func(t *testing.T, intent model.StakeIntent, w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/stake", r.URL.Path)

		var intent model.StakeIntent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&intent))
		w.Header().Set("Content-Type", "application/json")
		handler(t, intent, w)
	}))
}

func TestGetStakingInfo(t *testing.T) {
	srv := gatewayStub(t, func(t *testing.T, intent model.StakeIntent, w http.ResponseWriter) {
		assert.Equal(t, model.OperationInfo, intent.Operation)
		assert.Equal(t, testAddress, intent.Address)
		json.NewEncoder(w).Encode(model.InfoResponse{
			Success: true,
			Info:    model.StakingInfo{Balance: "See wallet", StakeableBalance: "3", ClaimableBalance: "0.1"},
		})
	})
	defer srv.Close()

	info, err := NewStakingClient(srv.URL).GetStakingInfo(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, "3", info.StakeableBalance)
	assert.Equal(t, "0.1", info.ClaimableBalance)
}

func TestBuildStake(t *testing.T) {
	srv := gatewayStub(t, func(t *testing.T, intent model.StakeIntent, w http.ResponseWriter) {
		assert.Equal(t, model.OperationStake, intent.Operation)
		assert.Equal(t, "0.5", intent.Amount)
		// 自托管签名流程固定 external 模式
		assert.Equal(t, "external", intent.Mode)
		json.NewEncoder(w).Encode(model.BuildResponse{
			Success:           true,
			Operation:         model.OperationStake,
			Amount:            "0.5",
			Transactions:      []json.RawMessage{json.RawMessage(`{"to":"0xabc","data":"0x01"}`)},
			RequiresSignature: true,
		})
	})
	defer srv.Close()

	resp, err := NewStakingClient(srv.URL).BuildStake(context.Background(), testAddress, "0.5")
	require.NoError(t, err)
	assert.True(t, resp.RequiresSignature)
	require.Len(t, resp.Transactions, 1)
}

func TestBuildClaim_SendsZeroAmount(t *testing.T) {
	srv := gatewayStub(t, func(t *testing.T, intent model.StakeIntent, w http.ResponseWriter) {
		assert.Equal(t, model.OperationClaim, intent.Operation)
		// claim 的金额由服务端决定，客户端只发占位的 "0"
		assert.Equal(t, "0", intent.Amount)
		json.NewEncoder(w).Encode(model.BuildResponse{Success: true, Operation: model.OperationClaim})
	})
	defer srv.Close()

	_, err := NewStakingClient(srv.URL).BuildClaim(context.Background(), testAddress)
	require.NoError(t, err)
}

func TestErrorPassthrough(t *testing.T) {
	srv := gatewayStub(t, func(t *testing.T, intent model.StakeIntent, w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "No rewards to claim"})
	})
	defer srv.Close()

	_, err := NewStakingClient(srv.URL).BuildClaim(context.Background(), testAddress)
	require.Error(t, err)
	// 网关错误消息原样透传，不加包装
	assert.EqualError(t, err, "No rewards to claim")
}

func TestErrorWithoutBody(t *testing.T) {
	srv := gatewayStub(t, func(t *testing.T, intent model.StakeIntent, w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer srv.Close()

	_, err := NewStakingClient(srv.URL).GetStakingInfo(context.Background(), testAddress)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staking request failed")
}
