package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"

	"dealmint/internal/domain/entity"
	"dealmint/internal/domain/value"
	"dealmint/pkg/httpx"
	"dealmint/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxErrorBodyLen      = 512
)

var errRejectedAPIKey = errors.New("api key rejected")

type ClientOptions struct {
	Endpoint          string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	LogFieldMaxLen    int
}

// Client talks to the bridging service over its HTTP API.
type Client struct {
	endpoint   *url.URL
	httpClient *http.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	endpoint, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("url.Parse: %w", err)
	}

	var transport http.RoundTripper = httpx.NewLoggingRoundTripper(
		http.DefaultTransport,
		httpx.WithLogFieldMaxLen(opts.LogFieldMaxLen),
		httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
	)

	if opts.RequestsPerSecond > 0 {
		transport = httpx.NewRateLimitRoundTripper(transport, opts.RequestsPerSecond, opts.Burst)
	}

	if opts.APIKey != "" {
		transport = httpx.NewAuthBearerRoundTripper(transport, staticKey(opts.APIKey))
	}

	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
	}, nil
}

type intentRequest struct {
	SourceChain   string `json:"sourceChain"`
	DestChain     string `json:"destChain"`
	SourceChainID int64  `json:"sourceChainId,omitempty"`
	DestChainID   int64  `json:"destChainId,omitempty"`
	Token         string `json:"token"`
	Amount        string `json:"amount"`
	Recipient     string `json:"recipient"`
}

type intentResponse struct {
	IntentID        string    `json:"intentId"`
	Status          string    `json:"status"`
	SourceChain     string    `json:"sourceChain"`
	DestChain       string    `json:"destChain"`
	BridgeTxHash    string    `json:"bridgeTxHash"`
	ExecutionTxHash string    `json:"executionTxHash"`
	Error           string    `json:"error"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type estimateRequest struct {
	SourceChain string `json:"sourceChain"`
	DestChain   string `json:"destChain"`
	Amount      string `json:"amount"`
}

type estimateResponse struct {
	EstimatedTime int64  `json:"estimatedTime"`
	EstimatedFee  string `json:"estimatedFee"`
}

// BridgeAndExecute submits a transfer. The idempotency key makes retries of
// the same request resolve to the intent created first.
func (c *Client) BridgeAndExecute(ctx context.Context, req entity.BridgeRequest) (entity.Intent, error) {
	body := intentRequest{
		SourceChain:   req.SourceNetwork,
		DestChain:     req.DestNetwork,
		SourceChainID: req.SourceChainID,
		DestChainID:   req.DestChainID,
		Token:         req.Token,
		Amount:        amountString(req.Amount),
		Recipient:     req.Recipient,
	}

	header := http.Header{}
	if req.IdempotencyKey != "" {
		header.Set(headerIdempotencyKey, req.IdempotencyKey)
	}

	var resp intentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/intents", header, body, &resp); err != nil {
		return entity.Intent{}, err
	}

	return resp.toDomain()
}

func (c *Client) IntentStatus(ctx context.Context, intentID string) (entity.Intent, error) {
	var resp intentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/intents/"+url.PathEscape(intentID), nil, nil, &resp); err != nil {
		return entity.Intent{}, err
	}

	if resp.IntentID == "" {
		resp.IntentID = intentID
	}

	return resp.toDomain()
}

func (c *Client) Estimate(ctx context.Context, req entity.BridgeRequest) (entity.BridgeEstimate, error) {
	body := estimateRequest{
		SourceChain: req.SourceNetwork,
		DestChain:   req.DestNetwork,
		Amount:      amountString(req.Amount),
	}

	var resp estimateResponse
	if err := c.do(ctx, http.MethodPost, "/v1/estimates", nil, body, &resp); err != nil {
		return entity.BridgeEstimate{}, err
	}

	fee, ok := new(big.Int).SetString(resp.EstimatedFee, 10)
	if !ok {
		return entity.BridgeEstimate{}, fmt.Errorf("%w: malformed fee %q", ErrUnavailable, resp.EstimatedFee)
	}

	return entity.BridgeEstimate{
		EstimatedSeconds: resp.EstimatedTime,
		Fee:              fee,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint.JoinPath(path).String(), body)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	for k, v := range header {
		req.Header[k] = v
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrIntentNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrUnavailable, method, path, resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}

	return nil
}

func (r intentResponse) toDomain() (entity.Intent, error) {
	if r.IntentID == "" {
		return entity.Intent{}, fmt.Errorf("%w: response without intent id", ErrUnavailable)
	}

	status := value.SettlementStatusPending
	if r.Status != "" {
		s, err := value.ParseSettlementStatus(r.Status)
		if err != nil {
			return entity.Intent{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		status = s
	}

	return entity.Intent{
		ID:              r.IntentID,
		Status:          status,
		SourceNetwork:   r.SourceChain,
		DestNetwork:     r.DestChain,
		BridgeTxHash:    r.BridgeTxHash,
		ExecutionTxHash: r.ExecutionTxHash,
		Error:           r.Error,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

func amountString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}

	return amount.String()
}

// staticKey authenticates with a fixed API key. A 401 means the key is
// wrong, so re-authentication fails.
type staticKey string

func (k staticKey) Authenticate(context.Context) error {
	return errRejectedAPIKey
}

func (k staticKey) BearerToken() string {
	return string(k)
}
