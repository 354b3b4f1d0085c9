package aggregator

import (
	"strconv"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/ssm-official/tinyswap/internal/domain/entity"
)

// upstreamResponse covers both historical response shapes of the aggregator
// endpoint family: the current one nests the executable payload under
// "transaction" and the route under "route.fills" with bps proportions, the
// legacy one carries flat to/data/value fields and a "sources" array with
// fractional proportions. Unused fields simply stay zero.
type upstreamResponse struct {
	SellToken    string `json:"sellToken"`
	BuyToken     string `json:"buyToken"`
	SellAmount   string `json:"sellAmount"`
	BuyAmount    string `json:"buyAmount"`
	Price        string `json:"price"`
	Gas          string `json:"gas"`
	EstimatedGas string `json:"estimatedGas"`
	GasPrice     string `json:"gasPrice"`

	// Legacy flat transaction fields.
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`

	AllowanceTarget string `json:"allowanceTarget"`

	Transaction *upstreamTransaction `json:"transaction"`
	Permit2     *upstreamPermit      `json:"permit2"`
	Route       *upstreamRoute       `json:"route"`
	Sources     []upstreamSource     `json:"sources"`
	Issues      *upstreamIssues      `json:"issues"`
}

type upstreamTransaction struct {
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	Gas      string `json:"gas"`
	GasPrice string `json:"gasPrice"`
}

type upstreamPermit struct {
	Kind   string             `json:"type"`
	Hash   string             `json:"hash"`
	EIP712 apitypes.TypedData `json:"eip712"`
}

type upstreamRoute struct {
	Fills []upstreamFill `json:"fills"`
}

type upstreamFill struct {
	Source        string `json:"source"`
	ProportionBps string `json:"proportionBps"`
}

type upstreamSource struct {
	Name       string `json:"name"`
	Proportion string `json:"proportion"`
}

type upstreamIssues struct {
	Allowance *struct {
		Spender string `json:"spender"`
	} `json:"allowance"`
}

// normalize maps either upstream shape onto the internal Quote. All amount
// fields stay integer strings; the float division below produces the display
// price only and never feeds settlement math.
func (c *Client) normalize(raw *upstreamResponse) *entity.Quote {
	quote := &entity.Quote{
		SellToken:        raw.SellToken,
		BuyToken:         raw.BuyToken,
		SellAmountAtomic: raw.SellAmount,
		BuyAmountAtomic:  raw.BuyAmount,
		Price:            raw.Price,
		GasPrice:         raw.GasPrice,
		AllowanceTarget:  raw.AllowanceTarget,
	}

	if quote.Price == "" {
		quote.Price = displayPrice(raw.BuyAmount, raw.SellAmount)
	}

	if raw.Transaction != nil && raw.Transaction.To != "" {
		quote.Transaction = &entity.TxPayload{
			To:       raw.Transaction.To,
			Data:     raw.Transaction.Data,
			Value:    orZero(raw.Transaction.Value),
			Gas:      raw.Transaction.Gas,
			GasPrice: raw.Transaction.GasPrice,
		}
		if quote.GasPrice == "" {
			quote.GasPrice = raw.Transaction.GasPrice
		}
	} else if raw.To != "" {
		quote.Transaction = &entity.TxPayload{
			To:       raw.To,
			Data:     raw.Data,
			Value:    orZero(raw.Value),
			Gas:      raw.Gas,
			GasPrice: raw.GasPrice,
		}
	}

	quote.EstimatedGas = firstNonEmpty(gasOf(raw.Transaction), raw.Gas, raw.EstimatedGas, defaultGasEstimate)
	if quote.Transaction != nil && quote.Transaction.Gas == "" {
		quote.Transaction.Gas = quote.EstimatedGas
	}

	if quote.AllowanceTarget == "" && raw.Issues != nil && raw.Issues.Allowance != nil {
		quote.AllowanceTarget = raw.Issues.Allowance.Spender
	}

	quote.Sources = normalizeSources(raw)

	if raw.Permit2 != nil && raw.Permit2.EIP712.PrimaryType != "" {
		quote.Permit = &entity.PermitPayload{
			Kind:    raw.Permit2.Kind,
			Hash:    raw.Permit2.Hash,
			EIP712:  raw.Permit2.EIP712,
			Variant: c.variant,
		}
	}

	return quote
}

func normalizeSources(raw *upstreamResponse) []entity.RouteSource {
	if raw.Route != nil && len(raw.Route.Fills) > 0 {
		sources := make([]entity.RouteSource, 0, len(raw.Route.Fills))
		for _, fill := range raw.Route.Fills {
			bps, err := strconv.ParseFloat(fill.ProportionBps, 64)
			if err != nil {
				continue
			}
			sources = append(sources, entity.RouteSource{Name: fill.Source, Proportion: bps / 10000})
		}
		return sources
	}

	if len(raw.Sources) > 0 {
		sources := make([]entity.RouteSource, 0, len(raw.Sources))
		for _, src := range raw.Sources {
			proportion, err := strconv.ParseFloat(src.Proportion, 64)
			if err != nil || proportion == 0 {
				continue
			}
			sources = append(sources, entity.RouteSource{Name: src.Name, Proportion: proportion})
		}
		return sources
	}
	return nil
}

// displayPrice computes buyAmount/sellAmount as a decimal string for display.
func displayPrice(buyAmount, sellAmount string) string {
	buy, errBuy := strconv.ParseFloat(buyAmount, 64)
	sell, errSell := strconv.ParseFloat(sellAmount, 64)
	if errBuy != nil || errSell != nil || sell == 0 {
		return ""
	}
	return strconv.FormatFloat(buy/sell, 'f', -1, 64)
}

func gasOf(tx *upstreamTransaction) string {
	if tx == nil {
		return ""
	}
	return tx.Gas
}

func orZero(value string) string {
	if value == "" {
		return "0"
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
