// Package client implements the wallet port against EVM-compatible chains
// with go-ethereum: batched balance reads, allowance/approve calls, EIP-712
// signing with a local key, and raw transaction submission.
package client

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.uber.org/zap"

	"github.com/ssm-official/tinyswap/internal/domain/entity"
)

// Minimal ERC-20 ABI: everything the swap flow touches.
const erc20ABI = `[
 {"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
 {"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"remaining","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
 {"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"success","type":"bool"}],"payable":false,"stateMutability":"nonpayable","type":"function"}
]`

var (
	parsedERC20ABI  abi.ABI
	parsedERC20Once sync.Once
)

func initParsedERC20ABI() {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
	})
}

const (
	receiptPollInterval = 2 * time.Second
	fallbackApproveGas  = 100000
)

// EVMWallet implements port.Wallet with a locally held key.
type EVMWallet struct {
	ethClient      *ethclient.Client
	netDef         entity.NetworkDefinition
	privateKey     *ecdsa.PrivateKey
	address        common.Address
	chainID        *big.Int
	rpcCallTimeout time.Duration
	logger         *zap.Logger
}

// NewEVMWallet dials the network's primary RPC endpoint, falling back through
// the configured alternates, and binds the given hex-encoded private key.
func NewEVMWallet(netDef entity.NetworkDefinition, privateKeyHex string, connectionTimeout, rpcCallTimeout time.Duration, logger *zap.Logger) (*EVMWallet, error) {
	initParsedERC20ABI()

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid wallet private key: %w", err)
	}

	rpcURLs := append([]string{netDef.PrimaryRPCURL}, netDef.FallbackRPCURLs...)
	var lastErr error
	for _, rpcURL := range rpcURLs {
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		ethClient, err := ethclient.DialContext(ctx, rpcURL)
		cancel()
		if err == nil {
			return &EVMWallet{
				ethClient:      ethClient,
				netDef:         netDef,
				privateKey:     key,
				address:        crypto.PubkeyToAddress(key.PublicKey),
				chainID:        new(big.Int).SetUint64(netDef.ChainID),
				rpcCallTimeout: rpcCallTimeout,
				logger:         logger.Named("EVMWallet").With(zap.String("network", netDef.Name)),
			}, nil
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}
	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", netDef.Name, lastErr)
}

// Address implements port.Wallet.
func (w *EVMWallet) Address() string {
	return w.address.Hex()
}

// GetFunds implements port.Wallet. The native balance and, for ERC-20 sells,
// the token balance go out in one JSON-RPC batch.
func (w *EVMWallet) GetFunds(ctx context.Context, owner string, sellToken entity.TokenInfo) (entity.AccountFunds, error) {
	ownerAddr := common.HexToAddress(owner)

	nativeResult := new(*hexutil.Big)
	batch := []rpc.BatchElem{{
		Method: "eth_getBalance",
		Args:   []interface{}{ownerAddr, "latest"},
		Result: nativeResult,
	}}

	nativeSell := entity.IsNativeToken(sellToken.Address)
	var tokenResult *hexutil.Bytes
	if !nativeSell {
		callData, err := parsedERC20ABI.Pack("balanceOf", ownerAddr)
		if err != nil {
			return entity.AccountFunds{}, fmt.Errorf("failed to pack balanceOf call: %w", err)
		}
		tokenResult = new(hexutil.Bytes)
		batch = append(batch, rpc.BatchElem{
			Method: "eth_call",
			Args: []interface{}{map[string]interface{}{
				"to":   common.HexToAddress(sellToken.Address),
				"data": hexutil.Bytes(callData),
			}, "latest"},
			Result: tokenResult,
		})
	}

	rpcCtx, cancel := context.WithTimeout(ctx, w.rpcCallTimeout)
	defer cancel()
	if err := w.ethClient.Client().BatchCallContext(rpcCtx, batch); err != nil {
		return entity.AccountFunds{}, fmt.Errorf("RPC batch call failed: %w", err)
	}
	for _, elem := range batch {
		if elem.Error != nil {
			return entity.AccountFunds{}, fmt.Errorf("%s failed: %w", elem.Method, elem.Error)
		}
	}

	funds := entity.AccountFunds{NativeBalance: big.NewInt(0), SellTokenBalance: big.NewInt(0)}
	if *nativeResult != nil {
		funds.NativeBalance = (*big.Int)(*nativeResult)
	}
	if nativeSell {
		funds.SellTokenBalance = funds.NativeBalance
		return funds, nil
	}

	if len(*tokenResult) > 0 {
		unpacked, err := parsedERC20ABI.Unpack("balanceOf", *tokenResult)
		if err != nil {
			return entity.AccountFunds{}, fmt.Errorf("failed to unpack balanceOf result for %s: %w", sellToken.Symbol, err)
		}
		balance, ok := unpacked[0].(*big.Int)
		if !ok {
			return entity.AccountFunds{}, fmt.Errorf("unexpected balanceOf result type %T for %s", unpacked[0], sellToken.Symbol)
		}
		funds.SellTokenBalance = balance
	}
	return funds, nil
}

// GetAllowance implements port.Wallet.
func (w *EVMWallet) GetAllowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	callData, err := parsedERC20ABI.Pack("allowance", common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, fmt.Errorf("failed to pack allowance call: %w", err)
	}

	rpcCtx, cancel := context.WithTimeout(ctx, w.rpcCallTimeout)
	defer cancel()
	tokenAddr := common.HexToAddress(token)
	result, err := w.ethClient.CallContract(rpcCtx, ethereum.CallMsg{To: &tokenAddr, Data: callData}, nil)
	if err != nil {
		return nil, fmt.Errorf("allowance call failed for %s: %w", token, err)
	}
	if len(result) == 0 {
		return big.NewInt(0), nil
	}

	unpacked, err := parsedERC20ABI.Unpack("allowance", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack allowance result: %w", err)
	}
	allowance, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected allowance result type %T", unpacked[0])
	}
	return allowance, nil
}

// Approve implements port.Wallet.
func (w *EVMWallet) Approve(ctx context.Context, token, spender string, value *big.Int) (string, error) {
	callData, err := parsedERC20ABI.Pack("approve", common.HexToAddress(spender), value)
	if err != nil {
		return "", fmt.Errorf("failed to pack approve call: %w", err)
	}

	tokenAddr := common.HexToAddress(token)
	hash, err := w.submit(ctx, &tokenAddr, callData, big.NewInt(0), 0, nil)
	if err != nil {
		return "", err
	}
	w.logger.Info("Approval submitted",
		zap.String("token", token),
		zap.String("spender", spender),
		zap.String("txHash", hash))
	return hash, nil
}

// SignTypedData implements port.Wallet. The payload is hashed and signed
// exactly as supplied; amounts and deadlines inside it are the upstream's.
func (w *EVMWallet) SignTypedData(_ context.Context, data apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}
	sig, err := crypto.Sign(hash, w.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign typed data: %w", err)
	}
	// Recovery id to Ethereum convention.
	sig[64] += 27
	return sig, nil
}

// SendTransaction implements port.Wallet.
func (w *EVMWallet) SendTransaction(ctx context.Context, payload entity.TxPayload) (string, error) {
	if payload.To == "" {
		return "", fmt.Errorf("transaction payload has no target address")
	}
	to := common.HexToAddress(payload.To)

	data, err := decodeCalldata(payload.Data)
	if err != nil {
		return "", err
	}
	value, err := parseAmount(payload.Value)
	if err != nil {
		return "", fmt.Errorf("invalid transaction value %q: %w", payload.Value, err)
	}
	gas, err := parseGas(payload.Gas)
	if err != nil {
		return "", fmt.Errorf("invalid gas limit %q: %w", payload.Gas, err)
	}
	var gasPrice *big.Int
	if payload.GasPrice != "" {
		gasPrice, err = parseAmount(payload.GasPrice)
		if err != nil {
			return "", fmt.Errorf("invalid gas price %q: %w", payload.GasPrice, err)
		}
	}

	hash, err := w.submit(ctx, &to, data, value, gas, gasPrice)
	if err != nil {
		return "", err
	}
	w.logger.Info("Swap transaction submitted", zap.String("txHash", hash))
	return hash, nil
}

// WaitForReceipt implements port.Wallet, polling the node until the
// transaction is mined or the context expires.
func (w *EVMWallet) WaitForReceipt(ctx context.Context, txHash string) (*entity.Receipt, error) {
	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := w.ethClient.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return &entity.Receipt{
				TxHash:      txHash,
				BlockNumber: receipt.BlockNumber.Uint64(),
				GasUsed:     receipt.GasUsed,
				Succeeded:   receipt.Status == types.ReceiptStatusSuccessful,
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gave up waiting for receipt of %s: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// submit signs and broadcasts a legacy transaction, filling in nonce, gas
// price and gas limit when the caller left them unset.
func (w *EVMWallet) submit(ctx context.Context, to *common.Address, data []byte, value *big.Int, gas uint64, gasPrice *big.Int) (string, error) {
	rpcCtx, cancel := context.WithTimeout(ctx, w.rpcCallTimeout)
	defer cancel()

	nonce, err := w.ethClient.PendingNonceAt(rpcCtx, w.address)
	if err != nil {
		return "", fmt.Errorf("failed to fetch nonce: %w", err)
	}
	if gasPrice == nil {
		gasPrice, err = w.ethClient.SuggestGasPrice(rpcCtx)
		if err != nil {
			return "", fmt.Errorf("failed to fetch gas price: %w", err)
		}
	}
	if gas == 0 {
		gas = fallbackApproveGas
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := w.ethClient.SendTransaction(rpcCtx, signedTx); err != nil {
		return "", fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	return signedTx.Hash().Hex(), nil
}

func decodeCalldata(data string) ([]byte, error) {
	if data == "" {
		return nil, nil
	}
	decoded, err := hexutil.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction calldata: %w", err)
	}
	return decoded, nil
}

// parseAmount accepts both decimal and 0x-hex integer strings; the aggregator
// emits decimal, node responses hex.
func parseAmount(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return hexutil.DecodeBig(value)
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("not an integer string")
	}
	return parsed, nil
}

func parseGas(value string) (uint64, error) {
	if value == "" {
		return 0, nil
	}
	parsed, err := parseAmount(value)
	if err != nil {
		return 0, err
	}
	if !parsed.IsUint64() {
		return 0, fmt.Errorf("gas limit out of range")
	}
	return parsed.Uint64(), nil
}
