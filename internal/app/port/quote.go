package port

import (
	"context"

	"github.com/ssm-official/tinyswap/internal/domain/entity"
)

// QuoteClient retrieves indicative prices and firm quotes from the liquidity
// aggregator. Implementations convert every failure to *entity.SwapError at
// this boundary.
type QuoteClient interface {
	// GetPrice returns an indicative, non-binding price. The result never
	// carries a transaction or authorization payload, even if the upstream
	// response included one.
	GetPrice(ctx context.Context, req entity.SwapRequest) (*entity.Quote, error)

	// GetFirmQuote returns a binding, taker-specific quote with an executable
	// transaction payload. The request must carry a taker address.
	GetFirmQuote(ctx context.Context, req entity.SwapRequest) (*entity.Quote, error)
}
