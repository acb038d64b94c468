// Package siac implements the legacy gateway against the SIAC HTTP API.
package siac

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/config"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/logger"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/telemetry"
)

const (
	// RequestIDHeader carries the per-call request id to SIAC
	RequestIDHeader = "X-Request-ID"

	defaultMaxResponseBytes = 10 << 20
)

var errBaseURLRequired = errors.New("siac: base url is required")

// Client calls SIAC with a fixed timeout and no retries
type Client struct {
	baseURL    string
	storeCode  string
	userAgent  string
	maxBody    int64
	httpClient *http.Client
	validate   *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

var _ guarda.LegacyGateway = (*Client)(nil)

// NewClient creates a SIAC client. SIAC serves self-signed certificates,
// so verification is skipped when cfg.InsecureSkipVerify is set.
func NewClient(cfg config.SIACConfig, log *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errBaseURLRequired
	}

	maxBody := cfg.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = defaultMaxResponseBytes
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // SIAC uses self-signed certificates
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		storeCode: cfg.StoreCode,
		userAgent: cfg.UserAgent,
		maxBody:   maxBody,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		validate: validator.New(),
		logger:   log.Named("siac"),
		now:      time.Now,
	}, nil
}

// ListReceipts lists the receipts SIAC currently holds. An empty userCode
// lists receipts of every user. Receipts whose fields exceed the local
// column widths are still listed, with Unfit set.
func (c *Client) ListReceipts(ctx context.Context, userCode string) ([]guarda.LegacyReceipt, error) {
	var body envelope[[]receiptDTO]
	if err := c.post(ctx, EndpointListReceipts, listRequest{UserCode: userCode}, &body); err != nil {
		return nil, err
	}
	out := make([]guarda.LegacyReceipt, 0, len(body.Data))
	for _, r := range body.Data {
		if err := c.validate.Struct(r); err != nil {
			return nil, malformed(EndpointListReceipts, err)
		}
		receipt := r.toDomain()
		if err := c.validate.Struct(r.columns()); err != nil {
			receipt.Unfit = err.Error()
		}
		out = append(out, receipt)
	}
	return out, nil
}

// GetReceiptDetail returns the detail of one receipt with its raw line items
func (c *Client) GetReceiptDetail(ctx context.Context, legacyID string) (*guarda.LegacyReceiptDetail, error) {
	var body envelope[*detailDTO]
	if err := c.post(ctx, EndpointReceiptDetail, receiptRequest{LegacyID: legacyID}, &body); err != nil {
		return nil, err
	}
	if body.Data == nil {
		return nil, malformed(EndpointReceiptDetail, errors.New("missing data"))
	}
	if err := c.validate.Struct(body.Data); err != nil {
		return nil, malformed(EndpointReceiptDetail, err)
	}
	return body.Data.toDomain(), nil
}

// StartReceipt marks the receipt started in SIAC
func (c *Client) StartReceipt(ctx context.Context, legacyID string) error {
	return c.post(ctx, EndpointStartReceipt, receiptRequest{LegacyID: legacyID}, nil)
}

// FinishReceipt marks the receipt finished in SIAC
func (c *Client) FinishReceipt(ctx context.Context, legacyID string) error {
	return c.post(ctx, EndpointFinishReceipt, receiptRequest{LegacyID: legacyID}, nil)
}

// LookupAddress returns the address as SIAC knows it, or "" when unknown
func (c *Client) LookupAddress(ctx context.Context, address string) (string, error) {
	var body addressDTO
	if err := c.post(ctx, EndpointLookupAddress, addressRequest{StoreCode: c.storeCode, Address: address}, &body); err != nil {
		return "", err
	}
	return body.Address, nil
}

// ChangeProductAddress asks SIAC to move a product to address
func (c *Client) ChangeProductAddress(ctx context.Context, productCode, address string) (*guarda.AddressChange, error) {
	var body addressChangeDTO
	req := changeAddressRequest{StoreCode: c.storeCode, ProductCode: productCode, Address: address}
	if err := c.post(ctx, EndpointChangeAddress, req, &body); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(body); err != nil {
		return nil, malformed(EndpointChangeAddress, err)
	}
	return &guarda.AddressChange{
		Status:          body.Status,
		Message:         body.Message,
		PreviousAddress: body.PreviousAddress,
		NewAddress:      body.NewAddress,
	}, nil
}

// Ping checks SIAC connectivity with a receipt listing
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListReceipts(ctx, "")
	return err
}

// post sends payload to endpoint and decodes the response into out when
// out is not nil. Failures are classified as ErrUpstreamTimeout,
// *guarda.UpstreamError or *guarda.TransportError.
func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	reqID := c.requestID()
	op := strings.Trim(endpoint, "/?")

	ctx, span := telemetry.StartSpan(ctx, "siac."+op,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrSIACEndpoint, op),
		telemetry.WithAttribute(telemetry.SpanAttrSIACRequestID, reqID),
	)
	defer span.End()

	log := logger.L(ctx, c.logger).With(zap.String("siac_request_id", reqID), zap.String("endpoint", op))
	start := c.now()

	err := c.do(ctx, endpoint, reqID, payload, out, span)
	elapsed := c.now().Sub(start)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("SIAC call failed", zap.Duration("latency", elapsed), zap.Error(err))
		return err
	}
	log.Debug("SIAC call succeeded", zap.Duration("latency", elapsed))
	return nil
}

func (c *Client) do(ctx context.Context, endpoint, reqID string, payload, out any, span trace.Span) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("siac: marshal %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return &guarda.TransportError{Op: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, reqID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(endpoint, err)
	}
	defer resp.Body.Close()
	telemetry.SetAttributes(span, telemetry.SpanAttrHTTPStatusCode, resp.StatusCode)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return classifyTransport(endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstreamError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return malformed(endpoint, errors.New("empty body"))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return malformed(endpoint, err)
	}
	return nil
}

// requestID builds req-<unix ms>-<random>
func (c *Client) requestID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return "req-" + strconv.FormatInt(c.now().UnixMilli(), 10) + "-" + random
}

func classifyTransport(endpoint string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return guarda.ErrUpstreamTimeout.Wrap(err)
	}
	return &guarda.TransportError{Op: endpoint, Err: err}
}

func upstreamError(status int, raw []byte) error {
	var body errorBody
	msg := guarda.DefaultUpstreamMessage
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		msg = body.Message
	}
	return &guarda.UpstreamError{Status: status, Message: msg}
}

func malformed(endpoint string, err error) error {
	return &guarda.UpstreamError{
		Status:  http.StatusBadGateway,
		Message: fmt.Sprintf("%s: resposta inválida do SIAC: %v", strings.Trim(endpoint, "/?"), err),
	}
}
