package restapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ssm-official/tinyswap/internal/app/port"
	"github.com/ssm-official/tinyswap/internal/app/service"
	"github.com/ssm-official/tinyswap/internal/domain/entity"
	"github.com/ssm-official/tinyswap/internal/infrastructure/configloader"
	"github.com/ssm-official/tinyswap/internal/pkg/amount"
)

// ExecuteSwapRequest is the wire shape of POST /api/v1/swap/execute.
// SellAmount is a human-decimal string; it is converted to atomic units with
// the sell token's declared precision.
type ExecuteSwapRequest struct {
	SellToken  entity.TokenInfo `json:"sellToken" binding:"required"`
	BuyToken   entity.TokenInfo `json:"buyToken" binding:"required"`
	SellAmount string           `json:"sellAmount" binding:"required"`
	ChainID    uint64           `json:"chainId"`
	Force      bool             `json:"force"`
}

// ExecuteSwapResponse reports the settled swap.
type ExecuteSwapResponse struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
	GasUsed     uint64 `json:"gasUsed"`
	BuyAmount   string `json:"buyAmount"`
}

// ExecuteHandler runs complete headless swaps with the locally configured
// signing key. It is only mounted when a wallet key is present in the config.
type ExecuteHandler struct {
	quotes   port.QuoteClient
	registry port.ChainRegistry
	wallets  port.WalletProvider
	cfg      *configloader.Config
	logger   port.Logger
}

// NewExecuteHandler creates an ExecuteHandler.
func NewExecuteHandler(quotes port.QuoteClient, registry port.ChainRegistry, wallets port.WalletProvider, cfg *configloader.Config, logger port.Logger) *ExecuteHandler {
	return &ExecuteHandler{quotes: quotes, registry: registry, wallets: wallets, cfg: cfg, logger: logger}
}

// ExecuteSwapHandler handles POST /api/v1/swap/execute: one orchestrated swap
// session from quote through confirmation.
func (h *ExecuteHandler) ExecuteSwapHandler(c *gin.Context) {
	var req ExecuteSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid swap request payload"})
		return
	}
	if req.ChainID == 0 {
		req.ChainID = 1
	}

	atomic := amount.ToAtomic(req.SellAmount, req.SellToken.Decimals)
	if atomic == "0" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sellAmount must be a positive decimal amount"})
		return
	}

	netDef := h.registry.Resolve(req.ChainID)
	wallet, err := h.wallets.GetWallet(netDef)
	if err != nil {
		h.logger.Error("Failed to obtain wallet", "chainId", req.ChainID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Wallet is unavailable for this chain"})
		return
	}

	recheckDelay := time.Duration(h.cfg.Orchestrator.AllowanceRecheckMillis) * time.Millisecond
	orchestrator := service.NewSwapOrchestrator(
		h.quotes,
		wallet,
		service.NewAllowanceManager(wallet, h.logger, recheckDelay),
		service.NewPermitSigner(wallet, h.logger),
		h.logger,
		service.OrchestratorOptions{
			DebounceDelay:   time.Duration(h.cfg.Orchestrator.DebounceMillis) * time.Millisecond,
			SlippagePercent: h.cfg.Orchestrator.DefaultSlippagePercent,
		},
	)
	defer orchestrator.Close()

	orchestrator.SetPair(req.SellToken, req.BuyToken, req.ChainID)
	orchestrator.SetSellAmount(atomic)

	receipt, err := orchestrator.Execute(c.Request.Context(), req.Force)
	if err != nil {
		swapErr := entity.AsSwapError(err, entity.ErrSubmissionFailed)
		status := http.StatusInternalServerError
		switch swapErr.Kind {
		case entity.ErrValidation, entity.ErrInsufficientBalance, entity.ErrInsufficientGas:
			status = http.StatusBadRequest
		case entity.ErrUpstreamRejected:
			if swapErr.Status != 0 {
				status = swapErr.Status
			}
		}
		c.JSON(status, gin.H{"error": swapErr.Message, "kind": string(swapErr.Kind)})
		return
	}

	response := ExecuteSwapResponse{
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
		GasUsed:     receipt.GasUsed,
	}
	if quote := orchestrator.CurrentQuote(); quote != nil {
		response.BuyAmount = quote.BuyAmountAtomic
	}
	c.JSON(http.StatusOK, response)
}
