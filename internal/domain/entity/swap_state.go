package entity

import "math/big"

// SwapState is the orchestrator's state machine position.
type SwapState string

const (
	StateIdle          SwapState = "idle"
	StateQuotePending  SwapState = "quote_pending"
	StateQuoteReady    SwapState = "quote_ready"
	StateNeedsApproval SwapState = "needs_approval"
	StateApproving     SwapState = "approving"
	StateApproved      SwapState = "approved"
	StateSigning       SwapState = "signing"
	StateSubmitting    SwapState = "submitting"
	StateConfirming    SwapState = "confirming"
	StateConfirmed     SwapState = "confirmed"
	StateFailed        SwapState = "failed"
)

// Terminal reports whether the state ends a swap attempt. Failed is terminal
// for the attempt but not for user intent: a retry re-enters QuotePending.
func (s SwapState) Terminal() bool {
	return s == StateConfirmed || s == StateFailed
}

// AllowanceState is a point-in-time read of a spender's authorization.
// It is re-read after every approval transaction and never cached across
// chain switches.
type AllowanceState struct {
	Owner   string
	Spender string
	Amount  *big.Int
}

// AccountFunds holds the balance reads backing the pre-submission guards.
type AccountFunds struct {
	NativeBalance    *big.Int
	SellTokenBalance *big.Int
}

// Receipt is the confirmation result for a submitted transaction.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	Succeeded   bool
}
