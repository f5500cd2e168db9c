// Package newsbreak implements the BudgetClient port against the NewsBreak
// business API.
package newsbreak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
	"github.com/ericfisherdev/adbudget/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BudgetClient = (*Client)(nil)

// DefaultBaseURL is the production business API root.
const DefaultBaseURL = "https://business.newsbreak.com/business-api/v1"

const (
	fetchBudgetPath  = "/balance/getAccountBudgetInfo"
	updateBudgetPath = "/balance/updateAccountsBudget"

	// maxErrorBody bounds how much of a failed response body is kept for diagnostics.
	maxErrorBody = 4096
)

// ClientConfig configures a Client. Zero values fall back to DefaultBaseURL
// and a 30-second timeout.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the NewsBreak budget endpoints. It holds no credentials; every
// call receives the already-decrypted access token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client from cfg.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// envelope is the response wrapper shared by every business API endpoint.
// Code 0 means the call was accepted.
type envelope[T any] struct {
	Code   int    `json:"code"`
	ErrMsg string `json:"errMsg"`
	Data   struct {
		List []T `json:"list"`
	} `json:"data"`
}

type fetchRequest struct {
	AccountIDs []string `json:"accountIds"`
}

type budgetInfoItem struct {
	AccountID     string   `json:"accountId"`
	SpendingCap   *float64 `json:"spendingCap"`
	CanViewBudget bool     `json:"canViewBudget"`
}

type updateItem struct {
	AdAccountID string `json:"adAccountId"`
	Budget      int64  `json:"budget"`
}

type updateRequest struct {
	AdAccountsBudgetUpdate []updateItem `json:"adAccountsBudgetUpdate"`
}

type updateResultItem struct {
	AdAccountID string `json:"adAccountId"`
	Message     string `json:"message"`
}

// FetchBudgetInfo reads the spending caps of accountIDs in a single request.
func (c *Client) FetchBudgetInfo(ctx context.Context, secret string, accountIDs []string) ([]model.BudgetAccountInfo, error) {
	const op = "fetch budget info"

	var resp envelope[budgetInfoItem]
	if err := c.post(ctx, op, fetchBudgetPath, secret, fetchRequest{AccountIDs: accountIDs}, &resp); err != nil {
		return nil, err
	}

	infos := make([]model.BudgetAccountInfo, 0, len(resp.Data.List))
	for _, item := range resp.Data.List {
		info := model.BudgetAccountInfo{
			AccountID:     item.AccountID,
			CanViewBudget: item.CanViewBudget,
		}
		if item.SpendingCap != nil {
			cents := int64(math.Round(*item.SpendingCap))
			info.SpendingCapCents = &cents
		}
		infos = append(infos, info)
	}

	c.logger.Debug("newsbreak budget info fetched",
		"requested", len(accountIDs),
		"returned", len(infos),
	)

	return infos, nil
}

// ApplyBudgetUpdates sets absolute spending caps in a single request.
func (c *Client) ApplyBudgetUpdates(ctx context.Context, secret string, updates []model.BudgetUpdate) ([]model.BudgetUpdateResult, error) {
	const op = "apply budget updates"

	body := updateRequest{AdAccountsBudgetUpdate: make([]updateItem, 0, len(updates))}
	for _, u := range updates {
		body.AdAccountsBudgetUpdate = append(body.AdAccountsBudgetUpdate, updateItem{
			AdAccountID: u.AccountID,
			Budget:      u.Cents,
		})
	}

	var resp envelope[updateResultItem]
	if err := c.post(ctx, op, updateBudgetPath, secret, body, &resp); err != nil {
		return nil, err
	}

	results := make([]model.BudgetUpdateResult, 0, len(resp.Data.List))
	for _, item := range resp.Data.List {
		results = append(results, model.BudgetUpdateResult{
			AccountID: item.AdAccountID,
			Message:   item.Message,
		})
	}

	c.logger.Debug("newsbreak budget updates applied",
		"submitted", len(updates),
		"returned", len(results),
	)

	return results, nil
}

// apiStatus exposes the embedded status of a decoded envelope.
type apiStatus interface {
	status() (code int, message string)
}

func (e *envelope[T]) status() (int, string) {
	return e.Code, e.ErrMsg
}

// post sends body as JSON and decodes the envelope into out. A non-2xx status
// and a non-zero envelope code are both reported as *model.UpstreamError.
func (c *Client) post(ctx context.Context, op, path, secret string, body any, out apiStatus) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Access-Token", secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("newsbreak: non-2xx response", "op", op, "status", resp.StatusCode)
		return &model.UpstreamError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       string(detail),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}

	if code, msg := out.status(); code != 0 {
		c.logger.Warn("newsbreak: api error", "op", op, "code", code, "message", msg)
		return &model.UpstreamError{
			Op:      op,
			APICode: code,
			Message: msg,
		}
	}

	return nil
}
