// Package cdp is a REST client for the external staking-as-a-service provider.
// It only covers the operations the gateway needs: building stake, unstake and
// claim operations, and querying stakeable/claimable balances.
package cdp

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"staking-core/pkg/monitor"

	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"
)

// StakingOperation is a provider-built operation. Its transactions may carry
// their unsigned payload hex-encoded; normalization is the caller's job.
type StakingOperation struct {
	ID           string            `json:"id"`
	Transactions []json.RawMessage `json:"transactions"`
}

type Client struct {
	BaseURL    string
	Network    string
	Asset      string
	Mode       string
	HTTPClient *http.Client

	apiKeyName string
	signingKey *ecdsa.PrivateKey
}

// NewClient creates a provider client. The private key is PEM-encoded; literal
// "\n" sequences are unescaped because the key usually arrives via an
// environment variable.
func NewClient(baseURL, network, asset, mode, apiKeyName, apiPrivateKey string) (*Client, error) {
	if apiKeyName == "" || apiPrivateKey == "" {
		return nil, fmt.Errorf("provider API credentials not configured")
	}

	pemKey := strings.ReplaceAll(apiPrivateKey, `\n`, "\n")
	signingKey, err := jwt.ParseECPrivateKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("parse provider API private key: %w", err)
	}

	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Network: network,
		Asset:   asset,
		Mode:    mode,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		apiKeyName: apiKeyName,
		signingKey: signingKey,
	}, nil
}

// BuildStakeOperation asks the provider to construct an unsigned stake operation.
func (c *Client) BuildStakeOperation(ctx context.Context, address string, amount decimal.Decimal) (*StakingOperation, error) {
	return c.buildOperation(ctx, "stake", address, amount)
}

// BuildUnstakeOperation asks the provider to construct an unsigned unstake operation.
func (c *Client) BuildUnstakeOperation(ctx context.Context, address string, amount decimal.Decimal) (*StakingOperation, error) {
	return c.buildOperation(ctx, "unstake", address, amount)
}

// BuildClaimOperation asks the provider to construct an unsigned claim operation.
func (c *Client) BuildClaimOperation(ctx context.Context, address string, amount decimal.Decimal) (*StakingOperation, error) {
	return c.buildOperation(ctx, "claim_stake", address, amount)
}

// StakeableBalance returns the balance available for staking, or nil when the
// provider reports none.
func (c *Client) StakeableBalance(ctx context.Context, address string) (*decimal.Decimal, error) {
	balances, err := c.fetchBalances(ctx, address)
	if err != nil {
		return nil, err
	}
	return balances.StakeableBalance, nil
}

// ClaimableBalance returns the accumulated reward balance, or nil when the
// provider reports none.
func (c *Client) ClaimableBalance(ctx context.Context, address string) (*decimal.Decimal, error) {
	balances, err := c.fetchBalances(ctx, address)
	if err != nil {
		return nil, err
	}
	return balances.ClaimableBalance, nil
}

type buildOperationRequest struct {
	NetworkID string `json:"network_id"`
	AssetID   string `json:"asset_id"`
	AddressID string `json:"address_id"`
	Action    string `json:"action"`
	Amount    string `json:"amount"`
	Mode      string `json:"mode"`
}

type stakingBalances struct {
	StakeableBalance *decimal.Decimal `json:"stakeable_balance"`
	ClaimableBalance *decimal.Decimal `json:"claimable_balance"`
}

func (c *Client) buildOperation(ctx context.Context, action, address string, amount decimal.Decimal) (*StakingOperation, error) {
	start := time.Now()
	defer func() {
		monitor.ObserveProviderRequest(action, time.Since(start).Seconds())
	}()

	body := buildOperationRequest{
		NetworkID: c.Network,
		AssetID:   c.Asset,
		AddressID: address,
		Action:    action,
		Amount:    amount.String(),
		Mode:      c.Mode,
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/v1/staking/operations", nil, body)
	if err != nil {
		return nil, err
	}

	var op StakingOperation
	if err := json.Unmarshal(respBody, &op); err != nil {
		return nil, fmt.Errorf("decode staking operation: %w", err)
	}
	return &op, nil
}

func (c *Client) fetchBalances(ctx context.Context, address string) (*stakingBalances, error) {
	start := time.Now()
	defer func() {
		monitor.ObserveProviderRequest("balances", time.Since(start).Seconds())
	}()

	query := url.Values{}
	query.Set("network_id", c.Network)
	query.Set("asset_id", c.Asset)
	query.Set("address_id", address)
	query.Set("mode", c.Mode)

	respBody, err := c.doRequest(ctx, http.MethodGet, "/v1/staking/balances", query, nil)
	if err != nil {
		return nil, err
	}

	var balances stakingBalances
	if err := json.Unmarshal(respBody, &balances); err != nil {
		return nil, fmt.Errorf("decode staking balances: %w", err)
	}
	return &balances, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	fullURL := c.BaseURL + path
	if query != nil {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, err
	}

	token, err := c.bearerToken(method, path)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		// 尽量把服务商的错误信息透传给上层
		var apiErr struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil {
			if apiErr.Message != "" {
				return nil, fmt.Errorf("provider API error: %s", apiErr.Message)
			}
			if apiErr.Error != "" {
				return nil, fmt.Errorf("provider API error: %s", apiErr.Error)
			}
		}
		return nil, fmt.Errorf("provider API error: %s", resp.Status)
	}

	return respBody, nil
}

// bearerToken signs a short-lived ES256 JWT scoped to one request, with the
// API key name as key id.
func (c *Client) bearerToken(method, path string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": c.apiKeyName,
		"iss": "cdp",
		"nbf": now.Unix(),
		"exp": now.Add(2 * time.Minute).Unix(),
		"uri": fmt.Sprintf("%s %s%s", method, strings.TrimPrefix(c.BaseURL, "https://"), path),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = c.apiKeyName
	return token.SignedString(c.signingKey)
}
