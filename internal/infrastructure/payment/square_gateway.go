package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/erp/returns/internal/domain/finance"
	"github.com/erp/returns/internal/infrastructure/telemetry"
	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SquareSandboxURL is the Square sandbox API host
const SquareSandboxURL = "https://connect.squareupsandbox.com"

// SquareConfig configures the Square refund gateway
type SquareConfig struct {
	AccessToken string
	BaseURL     string
	// Timeout bounds a single refund call
	Timeout time.Duration
	// BreakerMaxFailures consecutive transport failures open the breaker
	BreakerMaxFailures uint32
	// BreakerOpenTimeout is how long the breaker stays open
	BreakerOpenTimeout time.Duration
}

// Validate checks the configuration
func (c *SquareConfig) Validate() error {
	if strings.TrimSpace(c.AccessToken) == "" {
		return fmt.Errorf("%w: square access token is required", finance.ErrGatewayNotConfigured)
	}
	return nil
}

// SquareRefundGateway issues refunds through the Square Refunds API.
// Calls go through a circuit breaker that only counts availability failures.
type SquareRefundGateway struct {
	sdk     *sqclient.Client
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  *zap.Logger
}

// NewSquareRefundGateway creates the gateway
func NewSquareRefundGateway(cfg SquareConfig, logger *zap.Logger) (*SquareRefundGateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = SquareSandboxURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerOpenTimeout <= 0 {
		cfg.BreakerOpenTimeout = 30 * time.Second
	}

	maxFailures := cfg.BreakerMaxFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "square-refunds",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return !isAvailabilityError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &SquareRefundGateway{
		sdk: sqclient.NewClient(
			sqoption.WithBaseURL(baseURL),
			sqoption.WithToken(cfg.AccessToken),
		),
		breaker: breaker,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Refund refunds part of a captured Square payment. The RMA number is the
// idempotency key, so retrying a Receive never refunds twice.
func (g *SquareRefundGateway) Refund(ctx context.Context, req *finance.RefundRequest) (_ *finance.RefundResponse, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "square.refund", trace.SpanKindClient,
		attribute.String("rma.reference", req.Reference),
		attribute.String("payment.reference", req.PaymentReference),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	result, err := g.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		resp, err := g.sdk.Refunds.RefundPayment(callCtx, toSquareRefund(req))
		if err != nil {
			return nil, mapSquareError(err)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: circuit open", finance.ErrGatewayUnavailable)
		}
		g.logger.Warn("square refund failed",
			zap.String("reference", req.Reference),
			zap.String("payment_id", req.PaymentReference),
			zap.Error(err),
		)
		return nil, err
	}

	refund := result.(*sq.RefundPaymentResponse).GetRefund()
	if refund == nil {
		return nil, fmt.Errorf("%w: empty refund in response", finance.ErrGatewayRequestFailed)
	}
	out := &finance.RefundResponse{
		ProviderRefundID: optionalString(refund.GetID()),
		Status:           mapRefundStatus(optionalString(refund.GetStatus())),
	}
	if out.Status == finance.GatewayRefundFailed {
		out.FailureReason = "square refund " + strings.ToLower(optionalString(refund.GetStatus()))
	}

	g.logger.Info("square refund issued",
		zap.String("reference", req.Reference),
		zap.String("refund_id", out.ProviderRefundID),
		zap.String("status", string(out.Status)),
	)
	return out, nil
}

func toSquareRefund(req *finance.RefundRequest) *sq.RefundPaymentRequest {
	paymentID := req.PaymentReference
	out := &sq.RefundPaymentRequest{
		IdempotencyKey: req.Reference,
		AmountMoney:    toMoney(req.Amount, req.Currency),
		PaymentID:      &paymentID,
	}
	if req.Reason != "" {
		reason := req.Reason
		out.Reason = &reason
	}
	return out
}

// toMoney converts a decimal amount to Square's minor units
func toMoney(amount decimal.Decimal, currency string) *sq.Money {
	cents := amount.Shift(2).Round(0).IntPart()
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = "USD"
	}
	cur := sq.Currency(code)
	return &sq.Money{Amount: &cents, Currency: &cur}
}

func mapRefundStatus(status string) finance.GatewayRefundStatus {
	switch strings.ToUpper(status) {
	case "COMPLETED":
		return finance.GatewayRefundSucceeded
	case "REJECTED", "FAILED":
		return finance.GatewayRefundFailed
	default:
		return finance.GatewayRefundPending
	}
}

// mapSquareError sorts SDK errors into declines (4xx, the provider said no)
// and availability problems (5xx, throttling, transport)
func mapSquareError(err error) error {
	var apiErr *sqcore.APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", finance.ErrGatewayUnavailable, err)
		}
		return fmt.Errorf("%w: %v", finance.ErrGatewayRequestFailed, err)
	}

	detail := squareErrorDetail(apiErr)
	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500:
		return fmt.Errorf("%w: square status %d %s", finance.ErrGatewayUnavailable, apiErr.StatusCode, detail)
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: square status %d %s", finance.ErrGatewayNotConfigured, apiErr.StatusCode, detail)
	default:
		return fmt.Errorf("%w: square status %d %s", finance.ErrGatewayDeclined, apiErr.StatusCode, detail)
	}
}

// isAvailabilityError reports whether err means Square could not be reached or
// could not answer. Declines and credential errors are answers.
func isAvailabilityError(err error) bool {
	return errors.Is(err, finance.ErrGatewayUnavailable) || errors.Is(err, finance.ErrGatewayRequestFailed)
}

func squareErrorDetail(apiErr *sqcore.APIError) string {
	inner := apiErr.Unwrap()
	if inner == nil {
		return ""
	}
	var payload struct {
		Errors []*sq.Error `json:"errors"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(inner.Error())), &payload); err != nil {
		return ""
	}
	codes := make([]string, 0, len(payload.Errors))
	for _, e := range payload.Errors {
		if e != nil {
			codes = append(codes, string(e.GetCode()))
		}
	}
	return strings.Join(codes, ",")
}

// optionalString reads SDK fields that are plain strings or optional pointers
func optionalString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case *string:
		if s != nil {
			return *s
		}
	}
	return ""
}

var _ finance.RefundGateway = (*SquareRefundGateway)(nil)
