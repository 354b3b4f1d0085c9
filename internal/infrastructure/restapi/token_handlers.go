package restapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ssm-official/tinyswap/internal/app/port"
	"github.com/ssm-official/tinyswap/internal/domain/entity"
)

// TokenHandler serves the token-list endpoints backing the swap form's token
// picker: defaults merged with user-added custom tokens.
type TokenHandler struct {
	registry port.ChainRegistry
	store    port.TokenStore
	logger   port.Logger
}

// NewTokenHandler creates a TokenHandler.
func NewTokenHandler(registry port.ChainRegistry, store port.TokenStore, logger port.Logger) *TokenHandler {
	return &TokenHandler{registry: registry, store: store, logger: logger}
}

// ListTokensHandler handles GET /api/v1/tokens?chainId.
func (h *TokenHandler) ListTokensHandler(c *gin.Context) {
	chainID := uint64(1)
	if raw := c.Query("chainId"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chainId"})
			return
		}
		chainID = parsed
	}
	c.JSON(http.StatusOK, gin.H{"tokens": h.registry.TokensFor(chainID)})
}

// SaveTokenHandler handles POST /api/v1/tokens, persisting a custom token
// keyed by chain id + address.
func (h *TokenHandler) SaveTokenHandler(c *gin.Context) {
	var token entity.TokenInfo
	if err := c.ShouldBindJSON(&token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token payload"})
		return
	}

	if err := h.store.SaveToken(token); err != nil {
		var swapErr *entity.SwapError
		if errors.As(err, &swapErr) && swapErr.Kind == entity.ErrValidation {
			c.JSON(http.StatusBadRequest, gin.H{"error": swapErr.Message})
			return
		}
		h.logger.Error("Failed to persist custom token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save token"})
		return
	}
	c.JSON(http.StatusCreated, token)
}
