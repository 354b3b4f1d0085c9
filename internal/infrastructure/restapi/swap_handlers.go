package restapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ssm-official/tinyswap/internal/app/port"
	"github.com/ssm-official/tinyswap/internal/domain/entity"
	"github.com/ssm-official/tinyswap/internal/infrastructure/configloader"
)

// PriceResponse is the wire shape of GET /api/v1/swap/price.
type PriceResponse struct {
	SellToken    string               `json:"sellToken"`
	BuyToken     string               `json:"buyToken"`
	SellAmount   string               `json:"sellAmount"`
	BuyAmount    string               `json:"buyAmount"`
	Price        string               `json:"price"`
	EstimatedGas string               `json:"estimatedGas"`
	Sources      []entity.RouteSource `json:"sources,omitempty"`
}

// QuoteResponse extends PriceResponse with the executable payload of a firm
// quote.
type QuoteResponse struct {
	PriceResponse
	To              string                `json:"to"`
	Data            string                `json:"data"`
	Value           string                `json:"value"`
	Gas             string                `json:"gas"`
	GasPrice        string                `json:"gasPrice,omitempty"`
	AllowanceTarget string                `json:"allowanceTarget,omitempty"`
	Permit2         *entity.PermitPayload `json:"permit2,omitempty"`
}

// SwapHandler serves the price and quote endpoints.
type SwapHandler struct {
	quotes port.QuoteClient
	cfg    *configloader.Config
	logger port.Logger
}

// NewSwapHandler creates a SwapHandler.
func NewSwapHandler(quotes port.QuoteClient, cfg *configloader.Config, logger port.Logger) *SwapHandler {
	return &SwapHandler{quotes: quotes, cfg: cfg, logger: logger}
}

// GetPriceHandler handles GET /api/v1/swap/price.
func (h *SwapHandler) GetPriceHandler(c *gin.Context) {
	req, ok := h.parseRequest(c, false)
	if !ok {
		return
	}

	quote, err := h.quotes.GetPrice(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPriceResponse(quote))
}

// GetQuoteHandler handles GET /api/v1/swap/quote.
func (h *SwapHandler) GetQuoteHandler(c *gin.Context) {
	req, ok := h.parseRequest(c, true)
	if !ok {
		return
	}

	quote, err := h.quotes.GetFirmQuote(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response := QuoteResponse{
		PriceResponse:   toPriceResponse(quote),
		Value:           "0",
		Gas:             quote.EstimatedGas,
		GasPrice:        quote.GasPrice,
		AllowanceTarget: quote.AllowanceTarget,
		Permit2:         quote.Permit,
	}
	if quote.Transaction != nil {
		response.To = quote.Transaction.To
		response.Data = quote.Transaction.Data
		response.Value = quote.Transaction.Value
		if quote.Transaction.Gas != "" {
			response.Gas = quote.Transaction.Gas
		}
	}
	c.JSON(http.StatusOK, response)
}

func (h *SwapHandler) parseRequest(c *gin.Context, firm bool) (entity.SwapRequest, bool) {
	sellToken := c.Query("sellToken")
	buyToken := c.Query("buyToken")
	sellAmount := c.Query("sellAmount")
	if sellToken == "" || buyToken == "" || sellAmount == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return entity.SwapRequest{}, false
	}

	// A missing key is deployment misconfiguration, not a client mistake.
	if h.cfg.Aggregator.APIKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Aggregator API key is not configured"})
		return entity.SwapRequest{}, false
	}

	chainID := uint64(1)
	if raw := c.Query("chainId"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chainId"})
			return entity.SwapRequest{}, false
		}
		chainID = parsed
	}

	req := entity.SwapRequest{
		SellToken:        entity.TokenInfo{ChainID: chainID, Address: sellToken},
		BuyToken:         entity.TokenInfo{ChainID: chainID, Address: buyToken},
		SellAmountAtomic: sellAmount,
		Taker:            c.Query("takerAddress"),
		ChainID:          chainID,
		SlippagePercent:  h.cfg.Orchestrator.DefaultSlippagePercent,
	}
	if raw := c.Query("slippagePercentage"); raw != "" {
		slippage, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slippagePercentage"})
			return entity.SwapRequest{}, false
		}
		req.SlippagePercent = slippage
	}
	if firm && req.Taker == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "takerAddress is required"})
		return entity.SwapRequest{}, false
	}
	return req, true
}

// writeError maps the error taxonomy onto HTTP statuses: validation to 400,
// upstream rejection to the upstream's own status with its verbatim reason,
// everything else to 500.
func (h *SwapHandler) writeError(c *gin.Context, err error) {
	var swapErr *entity.SwapError
	if !errors.As(err, &swapErr) {
		swapErr = entity.AsSwapError(err, entity.ErrRetrieval)
	}

	status := http.StatusInternalServerError
	switch {
	case swapErr.Kind == entity.ErrValidation:
		status = http.StatusBadRequest
	case swapErr.Kind == entity.ErrUpstreamRejected && swapErr.Status != 0:
		status = swapErr.Status
	}

	h.logger.Warn("Swap request failed", "kind", string(swapErr.Kind), "status", status, "error", swapErr.Message)
	c.JSON(status, gin.H{"error": swapErr.Message})
}

func toPriceResponse(quote *entity.Quote) PriceResponse {
	return PriceResponse{
		SellToken:    quote.SellToken,
		BuyToken:     quote.BuyToken,
		SellAmount:   quote.SellAmountAtomic,
		BuyAmount:    quote.BuyAmountAtomic,
		Price:        quote.Price,
		EstimatedGas: quote.EstimatedGas,
		Sources:      quote.Sources,
	}
}
