package envio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"vaultScope/internal/model"
)

// ZeroAddress excludes mint/burn transfers in the transfer queries.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Client talks to the Envio HyperIndex GraphQL endpoint that indexes the
// vault's Deposit, Withdraw, and Transfer events.
type Client struct {
	url      string
	password string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient builds a Client for the given GraphQL endpoint. The indexer
// authenticates with HTTP basic auth using an empty username.
func NewClient(url, password string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:      url,
		password: password,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) query(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("", c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("graphql query failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read graphql response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return fmt.Errorf("parse graphql response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		messages := make([]string, 0, len(gqlResp.Errors))
		for _, gqlErr := range gqlResp.Errors {
			messages = append(messages, gqlErr.Message)
		}
		return fmt.Errorf("graphql errors: %s", strings.Join(messages, "; "))
	}

	if err := json.Unmarshal(gqlResp.Data, out); err != nil {
		return fmt.Errorf("decode graphql data: %w", err)
	}
	return nil
}

const depositsQuery = `
query GetDepositorDeposits($depositorAddress: String!, $vaultAddress: String!) {
  Deposit(
    where: {
      owner: { _eq: $depositorAddress }
      vaultAddress: { _eq: $vaultAddress }
    }
    order_by: { id: asc }
  ) {
    id
    sender
    owner
    assets
    shares
  }
}`

// Deposits returns the depositor's Deposit events for the vault.
func (c *Client) Deposits(ctx context.Context, depositor, vault string) ([]model.RawDeposit, error) {
	var data struct {
		Deposit []model.RawDeposit `json:"Deposit"`
	}
	err := c.query(ctx, depositsQuery, map[string]any{
		"depositorAddress": strings.ToLower(depositor),
		"vaultAddress":     strings.ToLower(vault),
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("fetch deposits: %w", err)
	}
	return data.Deposit, nil
}

const withdrawalsQuery = `
query GetDepositorWithdrawals($depositorAddress: String!, $vaultAddress: String!) {
  Withdraw(
    where: {
      owner: { _eq: $depositorAddress }
      vaultAddress: { _eq: $vaultAddress }
    }
    order_by: { id: asc }
  ) {
    id
    sender
    receiver
    owner
    assets
    shares
  }
}`

// Withdrawals returns the depositor's Withdraw events for the vault.
func (c *Client) Withdrawals(ctx context.Context, depositor, vault string) ([]model.RawWithdraw, error) {
	var data struct {
		Withdraw []model.RawWithdraw `json:"Withdraw"`
	}
	err := c.query(ctx, withdrawalsQuery, map[string]any{
		"depositorAddress": strings.ToLower(depositor),
		"vaultAddress":     strings.ToLower(vault),
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("fetch withdrawals: %w", err)
	}
	return data.Withdraw, nil
}

const transfersQuery = `
query GetDepositorTransfers($depositorAddress: String!, $zeroAddress: String!, $vaultAddress: String!) {
  transfersFrom: Transfer(
    where: {
      sender: { _eq: $depositorAddress }
      receiver: { _neq: $zeroAddress }
      vaultAddress: { _eq: $vaultAddress }
    }
    order_by: { id: asc }
  ) {
    id
    sender
    receiver
    value
  }
  transfersTo: Transfer(
    where: {
      receiver: { _eq: $depositorAddress }
      sender: { _neq: $zeroAddress }
      vaultAddress: { _eq: $vaultAddress }
    }
    order_by: { id: asc }
  ) {
    id
    sender
    receiver
    value
  }
}`

// Transfers returns the depositor's share transfers for the vault in both
// directions, excluding mints and burns.
func (c *Client) Transfers(ctx context.Context, depositor, vault string) ([]model.RawTransfer, error) {
	var data struct {
		TransfersFrom []model.RawTransfer `json:"transfersFrom"`
		TransfersTo   []model.RawTransfer `json:"transfersTo"`
	}
	err := c.query(ctx, transfersQuery, map[string]any{
		"depositorAddress": strings.ToLower(depositor),
		"zeroAddress":      ZeroAddress,
		"vaultAddress":     strings.ToLower(vault),
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("fetch transfers: %w", err)
	}
	return append(data.TransfersFrom, data.TransfersTo...), nil
}

// FetchEvents loads all three event collections for the depositor.
func (c *Client) FetchEvents(ctx context.Context, depositor, vault string) ([]model.RawDeposit, []model.RawWithdraw, []model.RawTransfer, error) {
	deposits, err := c.Deposits(ctx, depositor, vault)
	if err != nil {
		return nil, nil, nil, err
	}
	withdrawals, err := c.Withdrawals(ctx, depositor, vault)
	if err != nil {
		return nil, nil, nil, err
	}
	transfers, err := c.Transfers(ctx, depositor, vault)
	if err != nil {
		return nil, nil, nil, err
	}

	c.logger.Info("indexer events fetched",
		zap.Int("deposits", len(deposits)),
		zap.Int("withdrawals", len(withdrawals)),
		zap.Int("transfers", len(transfers)),
	)
	return deposits, withdrawals, transfers, nil
}
