package service

import (
	"context"
	"math/big"
	"time"

	"github.com/ssm-official/tinyswap/internal/app/port"
	"github.com/ssm-official/tinyswap/internal/domain/entity"
	"github.com/ssm-official/tinyswap/internal/pkg/metrics"
)

// boundedApproval is the value submitted for every approval: 2^128 - 1.
// Deliberately below the full uint256 maximum, which some token contracts
// reject.
var boundedApproval = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// AllowanceManager decides whether a spender already holds sufficient
// authorization for a sell amount and issues bounded approvals when not.
type AllowanceManager struct {
	wallet       port.Wallet
	logger       port.Logger
	recheckDelay time.Duration
}

// NewAllowanceManager creates an AllowanceManager. recheckDelay is how long
// to wait after an approval lands before re-reading the allowance; freshly
// written state is not immediately visible on every RPC read path.
func NewAllowanceManager(wallet port.Wallet, logger port.Logger, recheckDelay time.Duration) *AllowanceManager {
	return &AllowanceManager{
		wallet:       wallet,
		logger:       logger,
		recheckDelay: recheckDelay,
	}
}

// NeedsApproval reports whether the owner must approve the spender before the
// sell amount can be transferred. The native asset never needs approval, nor
// does a zero or unset sell amount. Otherwise the comparison is an exact
// integer allowance < sellAmount.
func (m *AllowanceManager) NeedsApproval(token entity.TokenInfo, allowance *big.Int, sellAmountAtomic string) bool {
	if entity.IsNativeToken(token.Address) {
		return false
	}
	sellAmount, ok := new(big.Int).SetString(sellAmountAtomic, 10)
	if !ok || sellAmount.Sign() <= 0 {
		return false
	}
	if allowance == nil {
		return true
	}
	return allowance.Cmp(sellAmount) < 0
}

// Approve submits a bounded approval for the spender, waits out the re-read
// delay, and returns the freshly read allowance.
func (m *AllowanceManager) Approve(ctx context.Context, token entity.TokenInfo, spender string) (*big.Int, error) {
	txHash, err := m.wallet.Approve(ctx, token.Address, spender, new(big.Int).Set(boundedApproval))
	if err != nil {
		metrics.ApprovalsTotal.WithLabelValues("failed").Inc()
		m.logger.Error("Approval submission failed", "token", token.Symbol, "spender", spender, "error", err)
		return nil, entity.NewSwapError(entity.ErrApprovalFailed, "approval was rejected or failed to broadcast", err)
	}
	m.logger.Info("Approval submitted", "token", token.Symbol, "spender", spender, "txHash", txHash)

	select {
	case <-ctx.Done():
		return nil, entity.NewSwapError(entity.ErrApprovalFailed, "canceled while waiting for the approval to settle", ctx.Err())
	case <-time.After(m.recheckDelay):
	}

	allowance, err := m.wallet.GetAllowance(ctx, token.Address, m.wallet.Address(), spender)
	if err != nil {
		metrics.ApprovalsTotal.WithLabelValues("failed").Inc()
		return nil, entity.NewSwapError(entity.ErrApprovalFailed, "failed to re-read the allowance after approval", err)
	}
	metrics.ApprovalsTotal.WithLabelValues("ok").Inc()
	return allowance, nil
}
