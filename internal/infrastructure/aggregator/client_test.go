package aggregator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ssm-official/tinyswap/internal/domain/entity"
	"github.com/ssm-official/tinyswap/internal/infrastructure/configloader"
)

type stubRegistry struct {
	baseURL string
}

func (s stubRegistry) Resolve(chainID uint64) entity.NetworkDefinition {
	return entity.NetworkDefinition{ChainID: chainID, AggregatorBaseURL: s.baseURL}
}

func (s stubRegistry) TokensFor(uint64) []entity.TokenInfo     { return nil }
func (s stubRegistry) AllNetworks() []entity.NetworkDefinition { return nil }

func testConfig() configloader.AggregatorConfig {
	return configloader.AggregatorConfig{
		APIKey:               "test-key",
		VersionHeader:        "v2",
		RequestTimeoutMillis: 2000,
		RateLimitPerSecond:   1000,
		RateLimitBurst:       1000,
	}
}

func newTestClient(baseURL string, fee configloader.FeeConfig) *Client {
	return NewClient(testConfig(), fee, stubRegistry{baseURL: baseURL}, zap.NewNop())
}

func testRequest() entity.SwapRequest {
	return entity.SwapRequest{
		SellToken:        entity.TokenInfo{ChainID: 1, Address: entity.NativeTokenAddress, Symbol: "ETH", Decimals: 18},
		BuyToken:         entity.TokenInfo{ChainID: 1, Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Symbol: "USDC", Decimals: 6},
		SellAmountAtomic: "1000000000000000000",
		Taker:            "0x1111111111111111111111111111111111111111",
		ChainID:          1,
		SlippagePercent:  0.01,
	}
}

func TestSlippageBps(t *testing.T) {
	cases := []struct {
		percent float64
		want    int
	}{
		{0.01, 100},
		{0.005, 50},
		{0.0001, 1},
		{0.00004, 1}, // rounds to 0, floored at 1
		{0, 1},
		{0.50005, 5001},
	}
	for _, tc := range cases {
		if got := slippageBps(tc.percent); got != tc.want {
			t.Errorf("slippageBps(%v) = %d, want %d", tc.percent, got, tc.want)
		}
	}
}

func TestGetPriceStripsExecutionPayloads(t *testing.T) {
	var gotQuery map[string]string
	var gotAPIKey, gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/swap/permit2/price", r.URL.Path)
		gotAPIKey = r.Header.Get("0x-api-key")
		gotVersion = r.Header.Get("0x-version")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sellToken":  entity.NativeTokenAddress,
			"buyToken":   "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			"sellAmount": "1000000000000000000",
			"buyAmount":  "3000000000",
			"transaction": map[string]string{
				"to":   "0x2222222222222222222222222222222222222222",
				"data": "0xdeadbeef",
			},
			"permit2": map[string]any{
				"type": "Permit2",
				"eip712": map[string]any{
					"primaryType": "PermitTransferFrom",
					"domain":      map[string]any{"name": "Permit2"},
					"types":       map[string]any{},
					"message":     map[string]any{},
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, configloader.FeeConfig{})
	quote, err := client.GetPrice(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "v2", gotVersion)
	assert.Equal(t, "1", gotQuery["chainId"])
	assert.Equal(t, "1000000000000000000", gotQuery["sellAmount"])
	assert.NotContains(t, gotQuery, "slippageBps")
	assert.NotContains(t, gotQuery, "swapFeeRecipient")

	// Indicative prices never expose execution payloads.
	assert.Nil(t, quote.Transaction)
	assert.Nil(t, quote.Permit)
	assert.Equal(t, "3000000000", quote.BuyAmountAtomic)
}

func TestGetFirmQuoteModernShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/swap/permit2/quote", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("slippageBps"))
		assert.Equal(t, "0x1111111111111111111111111111111111111111", r.URL.Query().Get("taker"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sellToken":  "0x6B175474E89094C44Da98b954EedeAC495271d0F",
			"buyToken":   "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			"sellAmount": "2000000000000000000",
			"buyAmount":  "2000000",
			"transaction": map[string]string{
				"to":       "0x2222222222222222222222222222222222222222",
				"data":     "0xdeadbeef",
				"gas":      "180000",
				"gasPrice": "15000000000",
			},
			"route": map[string]any{
				"fills": []map[string]string{
					{"source": "Uniswap_V3", "proportionBps": "7500"},
					{"source": "Curve", "proportionBps": "2500"},
				},
			},
			"issues": map[string]any{
				"allowance": map[string]string{"spender": "0x3333333333333333333333333333333333333333"},
			},
			"permit2": map[string]any{
				"type": "Permit2",
				"hash": "0xabc",
				"eip712": map[string]any{
					"primaryType": "PermitTransferFrom",
					"domain":      map[string]any{"name": "Permit2", "chainId": 1},
					"types":       map[string]any{},
					"message":     map[string]any{},
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, configloader.FeeConfig{})
	req := testRequest()
	req.SellToken = entity.TokenInfo{ChainID: 1, Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Symbol: "DAI", Decimals: 18}
	quote, err := client.GetFirmQuote(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, quote.Transaction)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", quote.Transaction.To)
	assert.Equal(t, "0", quote.Transaction.Value)
	assert.Equal(t, "180000", quote.EstimatedGas)
	assert.Equal(t, "15000000000", quote.GasPrice)
	assert.Equal(t, "0x3333333333333333333333333333333333333333", quote.AllowanceTarget)

	require.Len(t, quote.Sources, 2)
	assert.Equal(t, 0.75, quote.Sources[0].Proportion)
	assert.Equal(t, 0.25, quote.Sources[1].Proportion)

	require.NotNil(t, quote.Permit)
	assert.Equal(t, entity.SpliceLengthPrefixed, quote.Permit.Variant)
	assert.Equal(t, "PermitTransferFrom", quote.Permit.EIP712.PrimaryType)

	// 2000000 / 2e18 buy/sell ratio, display only.
	assert.NotEmpty(t, quote.Price)
}

func TestGetFirmQuoteLegacyShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sellToken":       "0x6B175474E89094C44Da98b954EedeAC495271d0F",
			"buyToken":        "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			"sellAmount":      "1000000000000000000",
			"buyAmount":       "1000000",
			"to":              "0x4444444444444444444444444444444444444444",
			"data":            "0xfeedface",
			"value":           "0",
			"allowanceTarget": "0x5555555555555555555555555555555555555555",
			"sources": []map[string]string{
				{"name": "Uniswap_V2", "proportion": "1"},
				{"name": "Balancer", "proportion": "0"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, configloader.FeeConfig{})
	quote, err := client.GetFirmQuote(context.Background(), testRequest())
	require.NoError(t, err)

	require.NotNil(t, quote.Transaction)
	assert.Equal(t, "0x4444444444444444444444444444444444444444", quote.Transaction.To)
	assert.Equal(t, "0xfeedface", quote.Transaction.Data)
	assert.Equal(t, "0x5555555555555555555555555555555555555555", quote.AllowanceTarget)
	assert.Nil(t, quote.Permit)

	// Missing gas falls back to the default estimate.
	assert.Equal(t, "250000", quote.EstimatedGas)

	// Zero-proportion sources are dropped; fractions pass through.
	require.Len(t, quote.Sources, 1)
	assert.Equal(t, "Uniswap_V2", quote.Sources[0].Name)
	assert.Equal(t, 1.0, quote.Sources[0].Proportion)
}

func TestFeeParamsOnlyWhenConfigured(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"buyAmount": "1", "sellAmount": "1"})
	}))
	defer server.Close()

	fee := configloader.FeeConfig{Recipient: "0x9999999999999999999999999999999999999999", Bps: 30}
	client := newTestClient(server.URL, fee)
	req := testRequest()
	_, err := client.GetPrice(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, fee.Recipient, gotQuery["swapFeeRecipient"])
	assert.Equal(t, "30", gotQuery["swapFeeBps"])
	assert.Equal(t, req.BuyToken.Address, gotQuery["swapFeeToken"])

	// Recipient without a positive bps sends nothing.
	client = newTestClient(server.URL, configloader.FeeConfig{Recipient: fee.Recipient})
	_, err = client.GetPrice(context.Background(), req)
	require.NoError(t, err)
	assert.NotContains(t, gotQuery, "swapFeeRecipient")
	assert.NotContains(t, gotQuery, "swapFeeToken")
}

func TestUpstreamRejectionSurfacesReason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"reason": "INSUFFICIENT_ASSET_LIQUIDITY"})
	}))
	defer server.Close()

	client := newTestClient(server.URL, configloader.FeeConfig{})
	_, err := client.GetPrice(context.Background(), testRequest())
	require.Error(t, err)

	swapErr := entity.AsSwapError(err, entity.ErrRetrieval)
	assert.Equal(t, entity.ErrUpstreamRejected, swapErr.Kind)
	assert.Equal(t, http.StatusBadRequest, swapErr.Status)
	assert.Equal(t, "INSUFFICIENT_ASSET_LIQUIDITY", swapErr.Message)
	assert.True(t, swapErr.AllowsOverride())
}

func TestUpstreamReasonPrecedence(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"reason wins", `{"reason":"NO_ROUTE","message":"ignored"}`, "NO_ROUTE"},
		{"message fallback", `{"message":"rate limited"}`, "rate limited"},
		{"generic fallback", `{}`, "Failed to fetch price"},
		{"unparseable body", `not json`, "Failed to fetch price"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := upstreamReason([]byte(tc.body), "price"); got != tc.want {
				t.Errorf("upstreamReason(%q) = %q, want %q", tc.body, got, tc.want)
			}
		})
	}
}

func TestTransportFailureIsRetrievalError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening

	client := newTestClient(server.URL, configloader.FeeConfig{})
	_, err := client.GetPrice(context.Background(), testRequest())
	require.Error(t, err)

	swapErr := entity.AsSwapError(err, entity.ErrValidation)
	assert.Equal(t, entity.ErrRetrieval, swapErr.Kind)
	assert.Zero(t, swapErr.Status)
}

func TestFirmQuoteRequiresTaker(t *testing.T) {
	client := newTestClient("http://unused", configloader.FeeConfig{})
	req := testRequest()
	req.Taker = ""
	_, err := client.GetFirmQuote(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, entity.ErrValidation, entity.AsSwapError(err, entity.ErrRetrieval).Kind)
}

func TestVariantFollowsProtocolVersion(t *testing.T) {
	if v := variantForVersion("v2"); v != entity.SpliceLengthPrefixed {
		t.Fatalf("v2 variant = %s", v)
	}
	if v := variantForVersion("v1"); v != entity.SpliceNoLengthPrefix {
		t.Fatalf("v1 variant = %s", v)
	}
}
