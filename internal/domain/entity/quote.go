package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// SwapRequest describes one quote or firm-quote request. It is constructed
// fresh for every user input change and never mutated afterwards; a new
// request supersedes the previous one rather than editing it.
type SwapRequest struct {
	SellToken        TokenInfo
	BuyToken         TokenInfo
	SellAmountAtomic string // integer string in the sell token's smallest unit
	Taker            string // optional for indicative prices, required for firm quotes
	ChainID          uint64
	SlippagePercent  float64 // decimal fraction, e.g. 0.01 == 1%
}

// RouteSource is one liquidity source in the aggregator's route breakdown.
type RouteSource struct {
	Name       string  `json:"name"`
	Proportion float64 `json:"proportion"` // 0..1 fraction of the sell amount
}

// TxPayload is the executable transaction attached to a firm quote.
type TxPayload struct {
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	Gas      string `json:"gas"`
	GasPrice string `json:"gasPrice"`
}

// SpliceVariant selects the wire convention for appending a permit signature
// to the transaction calldata. The variant is a property of the aggregator
// protocol version that produced the quote; it is never inferred from the
// calldata shape.
type SpliceVariant string

const (
	// SpliceNoLengthPrefix appends the raw signature bytes directly after the
	// base calldata.
	SpliceNoLengthPrefix SpliceVariant = "no-length-prefix"
	// SpliceLengthPrefixed appends a 32-byte big-endian signature-length word
	// followed by the raw signature bytes.
	SpliceLengthPrefixed SpliceVariant = "length-prefixed"
)

// PermitPayload carries the structured-data authorization a taker must sign
// for a trustless token transfer. The typed data embeds amounts and a deadline
// that the signature cryptographically commits to, so it is valid only against
// the quote that produced it and must be signed verbatim.
type PermitPayload struct {
	Kind    string            `json:"type,omitempty"`
	Hash    string            `json:"hash,omitempty"`
	EIP712  apitypes.TypedData `json:"eip712"`
	Variant SpliceVariant      `json:"-"`
}

// Quote is the normalized internal representation of an aggregator price or
// quote response. A price quote carries no Transaction/Permit payload and is
// never eligible for submission; a firm quote carries both (Permit only for
// ERC-20 sells).
type Quote struct {
	SellToken        string        `json:"sellToken"`
	BuyToken         string        `json:"buyToken"`
	SellAmountAtomic string        `json:"sellAmount"`
	BuyAmountAtomic  string        `json:"buyAmount"`
	Price            string        `json:"price"` // buy/sell ratio, display only
	EstimatedGas     string        `json:"estimatedGas"`
	GasPrice         string        `json:"gasPrice,omitempty"`
	AllowanceTarget  string        `json:"allowanceTarget,omitempty"`
	Sources          []RouteSource `json:"sources,omitempty"`
	Transaction      *TxPayload    `json:"transaction,omitempty"`
	Permit           *PermitPayload `json:"permit2,omitempty"`
}

// Firm reports whether the quote carries an executable transaction payload.
func (q *Quote) Firm() bool {
	return q != nil && q.Transaction != nil && q.Transaction.To != ""
}

// HasRoute reports whether the aggregator found a usable route. A zero or
// missing buy amount means no liquidity for the pair.
func (q *Quote) HasRoute() bool {
	if q == nil || q.BuyAmountAtomic == "" {
		return false
	}
	amount, ok := new(big.Int).SetString(q.BuyAmountAtomic, 10)
	return ok && amount.Sign() > 0
}
