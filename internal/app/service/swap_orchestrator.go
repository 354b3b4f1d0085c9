package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ssm-official/tinyswap/internal/app/port"
	"github.com/ssm-official/tinyswap/internal/domain/entity"
	"github.com/ssm-official/tinyswap/internal/pkg/debounce"
	"github.com/ssm-official/tinyswap/internal/pkg/metrics"
)

// OrchestratorOptions are the tunables of a swap session.
type OrchestratorOptions struct {
	// DebounceDelay is the quiescence window after an input change before an
	// indicative refresh fires.
	DebounceDelay time.Duration
	// SlippagePercent is the tolerance requested on firm quotes, as a
	// fraction (0.01 == 1%).
	SlippagePercent float64
	// QuoteTimeout bounds every refresh fetch.
	QuoteTimeout time.Duration
}

// SwapOrchestrator drives one swap session through the state machine
// Idle → QuotePending → QuoteReady → (approval states) → Signing →
// Submitting → Confirming → Confirmed/Failed. Input changes schedule a
// debounced indicative refresh; Execute runs the firm swap flow. All state
// lives behind one mutex.
type SwapOrchestrator struct {
	quotes     port.QuoteClient
	wallet     port.Wallet
	allowances *AllowanceManager
	signer     *PermitSigner
	logger     port.Logger
	opts       OrchestratorOptions

	debouncer *debounce.Debouncer

	mu         sync.Mutex
	state      entity.SwapState
	sellToken  entity.TokenInfo
	buyToken   entity.TokenInfo
	sellAmount string // atomic integer string
	chainID    uint64
	quote      *entity.Quote
	lastErr    *entity.SwapError
	generation uint64 // increments per refresh; stale responses are dropped
}

// NewSwapOrchestrator creates an idle swap session.
func NewSwapOrchestrator(
	quotes port.QuoteClient,
	wallet port.Wallet,
	allowances *AllowanceManager,
	signer *PermitSigner,
	logger port.Logger,
	opts OrchestratorOptions,
) *SwapOrchestrator {
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = 500 * time.Millisecond
	}
	if opts.QuoteTimeout <= 0 {
		opts.QuoteTimeout = 15 * time.Second
	}
	return &SwapOrchestrator{
		quotes:     quotes,
		wallet:     wallet,
		allowances: allowances,
		signer:     signer,
		logger:     logger,
		opts:       opts,
		debouncer:  debounce.New(opts.DebounceDelay),
		state:      entity.StateIdle,
	}
}

// SetPair replaces the token pair and schedules a debounced refresh.
func (o *SwapOrchestrator) SetPair(sell, buy entity.TokenInfo, chainID uint64) {
	o.mu.Lock()
	o.sellToken = sell
	o.buyToken = buy
	o.chainID = chainID
	o.mu.Unlock()
	o.scheduleRefresh()
}

// SetSellAmount replaces the sell amount (atomic integer string) and
// schedules a debounced refresh. An empty or zero amount resets to Idle.
func (o *SwapOrchestrator) SetSellAmount(atomic string) {
	o.mu.Lock()
	o.sellAmount = atomic
	o.mu.Unlock()
	o.scheduleRefresh()
}

// State returns the current state of the session.
func (o *SwapOrchestrator) State() entity.SwapState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// CurrentQuote returns the most recent quote, or nil.
func (o *SwapOrchestrator) CurrentQuote() *entity.Quote {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.quote
}

// LastError returns the current error, or nil. A fresh successful quote
// clears it; a new error replaces it.
func (o *SwapOrchestrator) LastError() *entity.SwapError {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Close cancels any pending debounced refresh.
func (o *SwapOrchestrator) Close() {
	o.debouncer.Cancel()
}

// scheduleRefresh arms the debounce timer. Only the last scheduled refresh
// within the quiescence window runs.
func (o *SwapOrchestrator) scheduleRefresh() {
	o.debouncer.Schedule(o.refreshQuote)
}

// refreshQuote fetches an indicative price for the current inputs. It runs on
// the debounce timer goroutine; a response is applied only if no newer
// refresh started while it was in flight.
func (o *SwapOrchestrator) refreshQuote() {
	o.mu.Lock()
	if o.sellToken.Address == "" || o.buyToken.Address == "" || !positiveAmount(o.sellAmount) {
		o.quote = nil
		o.state = entity.StateIdle
		o.mu.Unlock()
		return
	}
	o.generation++
	gen := o.generation
	o.state = entity.StateQuotePending
	req := entity.SwapRequest{
		SellToken:        o.sellToken,
		BuyToken:         o.buyToken,
		SellAmountAtomic: o.sellAmount,
		ChainID:          o.chainID,
		SlippagePercent:  o.opts.SlippagePercent,
	}
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), o.opts.QuoteTimeout)
	defer cancel()
	quote, err := o.quotes.GetPrice(ctx, req)

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.generation {
		// Superseded by a newer request; drop silently.
		return
	}
	if err != nil {
		o.quote = nil
		o.lastErr = entity.AsSwapError(err, entity.ErrRetrieval)
		o.state = entity.StateFailed
		o.logger.Warn("Quote refresh failed", "error", err)
		return
	}
	if !quote.HasRoute() {
		o.quote = nil
		o.lastErr = entity.NewSwapError(entity.ErrNoRoute, "no route available for this pair", nil)
		o.state = entity.StateFailed
		return
	}
	o.quote = quote
	o.lastErr = nil
	o.state = entity.StateQuoteReady
}

// Execute runs the full swap: pre-submission guards, firm quote, approval if
// needed, permit signing for ERC-20 sells, submission, and confirmation.
// force allows proceeding despite a prior quote-fetch error; errors from
// balances, approvals or signatures are never overridable.
func (o *SwapOrchestrator) Execute(ctx context.Context, force bool) (*entity.Receipt, error) {
	o.mu.Lock()
	if o.state == entity.StateApproving || o.state == entity.StateSigning ||
		o.state == entity.StateSubmitting || o.state == entity.StateConfirming {
		o.mu.Unlock()
		return nil, entity.NewSwapError(entity.ErrValidation, "a swap is already in flight", nil)
	}
	if o.lastErr != nil && !(force && o.lastErr.AllowsOverride()) {
		err := o.lastErr
		o.mu.Unlock()
		return nil, err
	}
	if o.sellToken.Address == "" || o.buyToken.Address == "" || !positiveAmount(o.sellAmount) {
		o.mu.Unlock()
		return nil, entity.NewSwapError(entity.ErrValidation, "sell token, buy token and a positive amount are required", nil)
	}
	sellToken := o.sellToken
	buyToken := o.buyToken
	sellAmount := o.sellAmount
	chainID := o.chainID
	// Entering the firm flow invalidates any in-flight indicative refresh.
	o.generation++
	o.mu.Unlock()

	receipt, err := o.execute(ctx, sellToken, buyToken, sellAmount, chainID)
	if err != nil {
		swapErr := entity.AsSwapError(err, entity.ErrSubmissionFailed)
		o.mu.Lock()
		o.lastErr = swapErr
		o.state = entity.StateFailed
		o.mu.Unlock()
		metrics.SwapsTotal.WithLabelValues(string(entity.StateFailed)).Inc()
		return nil, swapErr
	}

	o.mu.Lock()
	o.lastErr = nil
	o.state = entity.StateConfirmed
	o.mu.Unlock()
	metrics.SwapsTotal.WithLabelValues(string(entity.StateConfirmed)).Inc()
	return receipt, nil
}

func (o *SwapOrchestrator) execute(ctx context.Context, sellToken, buyToken entity.TokenInfo, sellAmount string, chainID uint64) (*entity.Receipt, error) {
	taker := o.wallet.Address()
	o.setState(entity.StateQuotePending)

	// The balance guards and the firm quote fetch are independent reads; run
	// them in parallel, then evaluate the guards first.
	var funds entity.AccountFunds
	var quote *entity.Quote
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		read, err := o.wallet.GetFunds(groupCtx, taker, sellToken)
		if err != nil {
			return entity.NewSwapError(entity.ErrRetrieval, "failed to read account balances", err)
		}
		funds = read
		return nil
	})
	group.Go(func() error {
		fetched, err := o.quotes.GetFirmQuote(groupCtx, entity.SwapRequest{
			SellToken:        sellToken,
			BuyToken:         buyToken,
			SellAmountAtomic: sellAmount,
			Taker:            taker,
			ChainID:          chainID,
			SlippagePercent:  o.opts.SlippagePercent,
		})
		if err != nil {
			return err
		}
		quote = fetched
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Both guards apply even when the sell token is the native asset itself.
	if funds.SellTokenBalance == nil || funds.SellTokenBalance.Sign() == 0 {
		return nil, entity.NewSwapError(entity.ErrInsufficientBalance, "the account holds none of the sell token", nil)
	}
	if funds.NativeBalance == nil || funds.NativeBalance.Sign() == 0 {
		return nil, entity.NewSwapError(entity.ErrInsufficientGas, "the account holds no native balance for network fees", nil)
	}

	if !quote.HasRoute() {
		return nil, entity.NewSwapError(entity.ErrNoRoute, "no route available for this pair", nil)
	}
	if !quote.Firm() {
		return nil, entity.NewSwapError(entity.ErrNoRoute, "quote carries no executable transaction", nil)
	}
	o.mu.Lock()
	o.quote = quote
	o.state = entity.StateQuoteReady
	o.mu.Unlock()

	nativeSell := entity.IsNativeToken(sellToken.Address)
	if !nativeSell && quote.AllowanceTarget != "" {
		if err := o.ensureAllowance(ctx, sellToken, sellAmount, quote.AllowanceTarget); err != nil {
			return nil, err
		}
	}

	tx := *quote.Transaction
	if !nativeSell && quote.Permit != nil {
		o.setState(entity.StateSigning)
		sig, err := o.signer.RequestSignature(ctx, quote.Permit)
		if err != nil {
			return nil, err
		}
		tx.Data, err = o.signer.SpliceSignature(tx.Data, sig, quote.Permit.Variant)
		if err != nil {
			return nil, err
		}
	}

	o.setState(entity.StateSubmitting)
	txHash, err := o.wallet.SendTransaction(ctx, tx)
	if err != nil {
		return nil, entity.NewSwapError(entity.ErrSubmissionFailed, "swap transaction was rejected or failed to broadcast", err)
	}
	o.logger.Info("Swap submitted", "txHash", txHash, "sellToken", sellToken.Symbol, "buyToken", buyToken.Symbol)

	o.setState(entity.StateConfirming)
	receipt, err := o.wallet.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, entity.NewSwapError(entity.ErrSubmissionFailed, "gave up waiting for the swap to confirm", err)
	}
	if !receipt.Succeeded {
		return nil, entity.NewSwapError(entity.ErrSubmissionFailed, "swap transaction reverted on-chain", nil)
	}
	return receipt, nil
}

func (o *SwapOrchestrator) ensureAllowance(ctx context.Context, sellToken entity.TokenInfo, sellAmount, spender string) error {
	allowance, err := o.wallet.GetAllowance(ctx, sellToken.Address, o.wallet.Address(), spender)
	if err != nil {
		return entity.NewSwapError(entity.ErrRetrieval, "failed to read the current allowance", err)
	}
	if !o.allowances.NeedsApproval(sellToken, allowance, sellAmount) {
		return nil
	}

	o.setState(entity.StateNeedsApproval)
	o.setState(entity.StateApproving)
	refreshed, err := o.allowances.Approve(ctx, sellToken, spender)
	if err != nil {
		return err
	}
	if o.allowances.NeedsApproval(sellToken, refreshed, sellAmount) {
		return entity.NewSwapError(entity.ErrApprovalFailed, "allowance is still insufficient after approval", nil)
	}
	o.setState(entity.StateApproved)
	return nil
}

func (o *SwapOrchestrator) setState(state entity.SwapState) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()
}

func positiveAmount(atomic string) bool {
	if atomic == "" {
		return false
	}
	for _, r := range atomic {
		if r < '0' || r > '9' {
			return false
		}
	}
	for _, r := range atomic {
		if r != '0' {
			return true
		}
	}
	return false
}
