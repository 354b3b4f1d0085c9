package port

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/ssm-official/tinyswap/internal/domain/entity"
)

// Wallet is the external signing and chain-access collaborator: it reads
// balances and allowances, signs structured data, and submits transactions.
// Signing calls are user-paced and carry no system-imposed timeout.
type Wallet interface {
	// Address returns the taker address this wallet signs for.
	Address() string

	// GetFunds reads the owner's native balance and sell-token balance in one
	// batched call. For a native sell token both values are the same read.
	GetFunds(ctx context.Context, owner string, sellToken entity.TokenInfo) (entity.AccountFunds, error)

	// GetAllowance reads the amount the owner has authorized the spender to
	// transfer for the given token contract.
	GetAllowance(ctx context.Context, token, owner, spender string) (*big.Int, error)

	// Approve submits an ERC-20 approval for the given value and returns the
	// transaction hash.
	Approve(ctx context.Context, token, spender string, value *big.Int) (string, error)

	// SignTypedData signs the EIP-712 payload exactly as supplied and returns
	// the 65-byte signature, or a user-rejection error.
	SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error)

	// SendTransaction submits a raw transaction and returns its hash.
	SendTransaction(ctx context.Context, tx entity.TxPayload) (string, error)

	// WaitForReceipt blocks until the transaction is mined or ctx is done.
	WaitForReceipt(ctx context.Context, txHash string) (*entity.Receipt, error)
}

// WalletProvider hands out one Wallet per network, reusing connections.
type WalletProvider interface {
	GetWallet(netDef entity.NetworkDefinition) (Wallet, error)
}
