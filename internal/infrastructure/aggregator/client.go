// Package aggregator implements the quote client against the 0x-style
// liquidity-aggregation HTTP API. It normalizes the upstream's historical
// response shapes into the internal Quote representation so callers never see
// upstream-specific field names.
package aggregator

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ssm-official/tinyswap/internal/app/port"
	"github.com/ssm-official/tinyswap/internal/domain/entity"
	"github.com/ssm-official/tinyswap/internal/infrastructure/configloader"
	"github.com/ssm-official/tinyswap/internal/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	pricePath = "/swap/permit2/price"
	quotePath = "/swap/permit2/quote"

	// Upstream occasionally omits the gas estimate on otherwise valid quotes.
	defaultGasEstimate = "250000"
)

// Client implements port.QuoteClient over fasthttp.
type Client struct {
	client   *fasthttp.Client
	registry port.ChainRegistry
	limiter  *rate.Limiter
	logger   *zap.Logger

	apiKey  string
	version string
	variant entity.SpliceVariant
	timeout time.Duration

	feeRecipient string
	feeBps       int
}

// NewClient creates a quote client. The fee configuration is injected here so
// request handlers never read it ad hoc; the splice variant for permit
// signatures follows the configured protocol version.
func NewClient(cfg configloader.AggregatorConfig, fee configloader.FeeConfig, registry port.ChainRegistry, logger *zap.Logger) *Client {
	return &Client{
		client:       &fasthttp.Client{},
		registry:     registry,
		limiter:      rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
		logger:       logger.Named("AggregatorClient"),
		apiKey:       cfg.APIKey,
		version:      cfg.VersionHeader,
		variant:      variantForVersion(cfg.VersionHeader),
		timeout:      time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		feeRecipient: fee.Recipient,
		feeBps:       fee.Bps,
	}
}

// variantForVersion maps the aggregator protocol version to the calldata
// signature-splice convention its quotes require. The v2 permit2 flow prefixes
// the signature with a 32-byte length word; earlier versions append the raw
// signature directly.
func variantForVersion(version string) entity.SpliceVariant {
	if version == "v2" {
		return entity.SpliceLengthPrefixed
	}
	return entity.SpliceNoLengthPrefix
}

// GetPrice implements port.QuoteClient. The result is indicative only:
// transaction and authorization payloads are stripped even when the upstream
// response includes them.
func (c *Client) GetPrice(ctx context.Context, req entity.SwapRequest) (*entity.Quote, error) {
	if err := validateRequest(req, false); err != nil {
		return nil, err
	}

	params := c.baseParams(req)
	quote, err := c.fetch(ctx, "price", req.ChainID, pricePath, params)
	if err != nil {
		return nil, err
	}
	quote.Transaction = nil
	quote.Permit = nil
	return quote, nil
}

// GetFirmQuote implements port.QuoteClient. A taker address is required; the
// returned quote carries the executable transaction payload and, for ERC-20
// sells, the permit authorization to sign.
func (c *Client) GetFirmQuote(ctx context.Context, req entity.SwapRequest) (*entity.Quote, error) {
	if err := validateRequest(req, true); err != nil {
		return nil, err
	}

	params := c.baseParams(req)
	params.Set("slippageBps", strconv.Itoa(slippageBps(req.SlippagePercent)))
	return c.fetch(ctx, "quote", req.ChainID, quotePath, params)
}

func validateRequest(req entity.SwapRequest, firm bool) error {
	if req.SellToken.Address == "" || req.BuyToken.Address == "" || req.SellAmountAtomic == "" {
		return entity.NewSwapError(entity.ErrValidation, "sellToken, buyToken and sellAmount are required", nil)
	}
	if firm && req.Taker == "" {
		return entity.NewSwapError(entity.ErrValidation, "a taker address is required for a firm quote", nil)
	}
	return nil
}

// slippageBps converts a percentage fraction (0.01 == 1%) to integer basis
// points, rounded to the nearest bps and floored at 1.
func slippageBps(percent float64) int {
	bps := int(math.Round(percent * 10000))
	if bps < 1 {
		bps = 1
	}
	return bps
}

func (c *Client) baseParams(req entity.SwapRequest) url.Values {
	params := url.Values{}
	params.Set("chainId", strconv.FormatUint(req.ChainID, 10))
	params.Set("sellToken", req.SellToken.Address)
	params.Set("buyToken", req.BuyToken.Address)
	params.Set("sellAmount", req.SellAmountAtomic)
	if req.Taker != "" {
		params.Set("taker", req.Taker)
	}
	// Fee parameters ride along only when both a recipient and a positive
	// rate are configured; the fee is always taken from the buy-side token.
	if c.feeRecipient != "" && c.feeBps > 0 {
		params.Set("swapFeeRecipient", c.feeRecipient)
		params.Set("swapFeeBps", strconv.Itoa(c.feeBps))
		params.Set("swapFeeToken", req.BuyToken.Address)
	}
	return params
}

func (c *Client) fetch(ctx context.Context, operation string, chainID uint64, path string, params url.Values) (*entity.Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, entity.NewSwapError(entity.ErrRetrieval, "request canceled while rate limited", err)
	}

	network := c.registry.Resolve(chainID)
	requestURL := network.AggregatorBaseURL + path + "?" + params.Encode()

	c.logger.Debug("Requesting quote from aggregator",
		zap.String("operation", operation),
		zap.Uint64("chainId", chainID),
		zap.String("url", network.AggregatorBaseURL+path))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("0x-api-key", c.apiKey)
	req.Header.Set("0x-version", c.version)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	started := time.Now()
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	metrics.UpstreamLatencySeconds.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.QuoteRequestsTotal.WithLabelValues(operation, "retrieval_failure").Inc()
		c.logger.Error("Aggregator request failed", zap.String("operation", operation), zap.Error(err))
		return nil, entity.NewSwapError(entity.ErrRetrieval,
			fmt.Sprintf("failed to reach the aggregator for %s", operation), err)
	}

	rawBody := resp.Body()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		metrics.QuoteRequestsTotal.WithLabelValues(operation, "upstream_rejected").Inc()
		reason := upstreamReason(rawBody, operation)
		c.logger.Warn("Aggregator rejected request",
			zap.String("operation", operation),
			zap.Int("statusCode", resp.StatusCode()),
			zap.String("reason", reason))
		return nil, entity.NewUpstreamRejected(resp.StatusCode(), reason)
	}

	var raw upstreamResponse
	if err := json.Unmarshal(rawBody, &raw); err != nil {
		metrics.QuoteRequestsTotal.WithLabelValues(operation, "retrieval_failure").Inc()
		c.logger.Error("Failed to unmarshal aggregator response",
			zap.String("operation", operation),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err))
		return nil, entity.NewSwapError(entity.ErrRetrieval, "malformed aggregator response", err)
	}

	metrics.QuoteRequestsTotal.WithLabelValues(operation, "ok").Inc()
	return c.normalize(&raw), nil
}

// upstreamReason surfaces the upstream's human-readable failure reason,
// checking the structured reason field first, then the message field, then a
// generic fallback.
func upstreamReason(body []byte, operation string) string {
	var envelope struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Reason != "" {
			return envelope.Reason
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return "Failed to fetch " + operation
}
