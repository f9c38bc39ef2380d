// Package client talks to the staking gateway's single /api/v1/stake endpoint.
// It is the transport used by the signing orchestrator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"staking-core/internal/model"
)

type StakingClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewStakingClient(baseURL string) *StakingClient {
	return &StakingClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetStakingInfo 查询余额快照
func (c *StakingClient) GetStakingInfo(ctx context.Context, address string) (*model.StakingInfo, error) {
	var resp model.InfoResponse
	intent := model.StakeIntent{Operation: model.OperationInfo, Address: address}
	if err := c.post(ctx, intent, &resp); err != nil {
		return nil, err
	}
	return &resp.Info, nil
}

// BuildStake 请求构建 stake 未签名交易
func (c *StakingClient) BuildStake(ctx context.Context, address, amount string) (*model.BuildResponse, error) {
	return c.build(ctx, model.StakeIntent{
		Operation: model.OperationStake,
		Address:   address,
		Amount:    amount,
		Mode:      "external",
	})
}

// BuildUnstake 请求构建 unstake 未签名交易
func (c *StakingClient) BuildUnstake(ctx context.Context, address, amount string) (*model.BuildResponse, error) {
	return c.build(ctx, model.StakeIntent{
		Operation: model.OperationUnstake,
		Address:   address,
		Amount:    amount,
		Mode:      "external",
	})
}

// BuildClaim 请求构建 claim 未签名交易。金额在服务端决定。
func (c *StakingClient) BuildClaim(ctx context.Context, address string) (*model.BuildResponse, error) {
	return c.build(ctx, model.StakeIntent{
		Operation: model.OperationClaim,
		Address:   address,
		Amount:    "0",
		Mode:      "external",
	})
}

func (c *StakingClient) build(ctx context.Context, intent model.StakeIntent) (*model.BuildResponse, error) {
	var resp model.BuildResponse
	if err := c.post(ctx, intent, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *StakingClient) post(ctx context.Context, intent model.StakeIntent, out any) error {
	body, err := json.Marshal(intent)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/stake", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("staking gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		// 失败时网关返回 {"error": "..."}，消息原样透传
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("staking request failed: %s", resp.Status)
	}

	return json.Unmarshal(respBody, out)
}
