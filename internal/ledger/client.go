package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/securepay/gateway/internal/config"
	apperrors "github.com/securepay/gateway/internal/errors"
	"github.com/securepay/gateway/internal/models"
)

// Client is the single transport path to the remote ledger service and the
// market-data passthroughs it hosts. Every method translates one logical
// operation into an HTTP call and normalizes the success, error and
// empty-body cases. Failures come back as *errors.AppError; the client never
// retries on its own.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg config.LedgerConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// =============================================================================
// Users
// =============================================================================

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.doJSON(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (c *Client) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodPost, "/users", req, &user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Info().Int64("userId", user.ID).Str("name", user.Name).Msg("User created on ledger")
	return &user, nil
}

// DeleteUser treats the ledger's no-content reply as the boolean success it
// is defined to be.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	log.Info().Int64("userId", id).Msg("User deleted on ledger")
	return nil
}

// Balance returns the raw numeric balance endpoint parsed as a decimal.
func (c *Client) Balance(ctx context.Context, id int64) (decimal.Decimal, error) {
	raw, err := c.doText(ctx, http.MethodGet, fmt.Sprintf("/users/%d/balance", id), nil, false)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance for user %d: %w", id, err)
	}
	balance, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, apperrors.New(apperrors.ErrCodeDecodeFailed,
			fmt.Sprintf("balance endpoint returned non-numeric payload for user %d", id), err)
	}
	return balance, nil
}

// =============================================================================
// Transactions
// =============================================================================

func (c *Client) Transactions(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := c.doJSON(ctx, http.MethodGet, "/transactions", nil, &txs); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

func (c *Client) CreateTransaction(ctx context.Context, draft *models.TransferDraft) (*models.Transaction, error) {
	var tx models.Transaction
	if err := c.doJSON(ctx, http.MethodPost, "/transactions", draft, &tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	log.Info().
		Int64("txId", tx.ID).
		Int64("senderId", draft.SenderID).
		Int64("receiverId", draft.ReceiverID).
		Str("amount", draft.Amount.String()).
		Str("status", string(tx.Status)).
		Msg("Transaction submitted to ledger")
	return &tx, nil
}

// AnalyzeTransaction is a raw-text endpoint: the risk service answers with
// best-effort JSON that the caller re-parses (see DecodeLoose).
func (c *Client) AnalyzeTransaction(ctx context.Context, draft *models.TransferDraft) (string, error) {
	raw, err := c.doText(ctx, http.MethodPost, "/analyze-transaction", draft, false)
	if err != nil {
		return "", fmt.Errorf("failed to analyze transaction: %w", err)
	}
	return raw, nil
}

// =============================================================================
// Mining and chain state
// =============================================================================

// Mine asks the ledger to mine pending transactions. A no-content reply is
// the ledger's explicit "nothing to mine" signal, reported as mined=false
// with no error; it is distinct from both success and failure.
func (c *Client) Mine(ctx context.Context) (*models.Block, bool, error) {
	resp, err := c.do(ctx, http.MethodPost, "/mine", nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to mine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		log.Info().Msg("Mine requested: no pending transactions")
		return nil, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, c.upstreamError(resp, "mine")
	}

	var block models.Block
	if err := json.NewDecoder(resp.Body).Decode(&block); err != nil {
		return nil, false, apperrors.New(apperrors.ErrCodeDecodeFailed, "mine response was not a block record", err)
	}
	log.Info().Int("blockIndex", block.BlockIndex).Msg("Block mined")
	return &block, true, nil
}

// Blockchain returns the chain record verbatim; the dashboard renders it as
// an opaque document.
func (c *Client) Blockchain(ctx context.Context) (json.RawMessage, error) {
	var chain json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/blockchain", nil, &chain); err != nil {
		return nil, fmt.Errorf("failed to get blockchain: %w", err)
	}
	return chain, nil
}

// =============================================================================
// Market data passthroughs
// =============================================================================

// StockPrice, StockSearch and StockSeries are defined to return raw text
// even on upstream error, so the caller can surface the error string the
// way the market service wrote it.

func (c *Client) StockPrice(ctx context.Context, symbol string) (string, error) {
	return c.doText(ctx, http.MethodGet, "/stocks/price/"+symbol, nil, true)
}

func (c *Client) StockSearch(ctx context.Context, keyword string) (string, error) {
	return c.doText(ctx, http.MethodGet, "/stocks/search/"+keyword, nil, true)
}

func (c *Client) StockSeries(ctx context.Context, symbol string) (string, error) {
	return c.doText(ctx, http.MethodGet, "/stocks/series/"+symbol, nil, true)
}

// =============================================================================
// Request plumbing
// =============================================================================

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodeInternalError, "failed to encode request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeInternalError, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		appErr := apperrors.ParseTransportError(err, method+" "+path)
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("Ledger request failed")
		return nil, appErr
	}
	return resp, nil
}

// doJSON runs a structured-payload request. A no-content reply counts as a
// boolean success (out stays untouched); any non-success status surfaces the
// response body as the error message.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.upstreamError(resp, method+" "+path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.New(apperrors.ErrCodeDecodeFailed,
			fmt.Sprintf("unexpected payload from %s %s", method, path), err)
	}
	return nil
}

// doText runs a raw-text request. With lenientStatus set (market-data
// endpoints) the body text is returned even on a non-success status.
func (c *Client) doText(ctx context.Context, method, path string, body interface{}, lenientStatus bool) (string, error) {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return "", apperrors.New(apperrors.ErrCodeTransportFailure,
			fmt.Sprintf("failed reading response from %s %s", method, path), readErr)
	}

	if !lenientStatus && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return "", c.upstreamErrorBody(resp.StatusCode, string(raw), method+" "+path)
	}
	return string(raw), nil
}

func (c *Client) upstreamError(resp *http.Response, operation string) error {
	raw, _ := io.ReadAll(resp.Body)
	return c.upstreamErrorBody(resp.StatusCode, string(raw), operation)
}

func (c *Client) upstreamErrorBody(status int, body, operation string) error {
	message := strings.TrimSpace(body)
	if message == "" {
		message = http.StatusText(status)
	}
	log.Error().
		Int("status", status).
		Str("operation", operation).
		Str("body", message).
		Msg("Ledger returned error status")
	return apperrors.New(apperrors.ErrCodeUpstreamStatus,
		fmt.Sprintf("API Error (%d): %s", status, message), nil)
}
