package service

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ssm-official/tinyswap/internal/app/port"
	"github.com/ssm-official/tinyswap/internal/domain/entity"
)

// PermitSigner obtains the structured-data signature a firm quote demands and
// splices it into the transaction calldata. Only ERC-20 sells carry a permit;
// native-asset sells never reach this code.
type PermitSigner struct {
	wallet port.Wallet
	logger port.Logger
}

// NewPermitSigner creates a PermitSigner.
func NewPermitSigner(wallet port.Wallet, logger port.Logger) *PermitSigner {
	return &PermitSigner{wallet: wallet, logger: logger}
}

// RequestSignature asks the wallet to sign the quote's typed-data payload.
// The payload is forwarded verbatim: the upstream embeds amounts and a
// deadline into the message the signature commits to, so recomputing or
// mutating any field would invalidate the quote.
func (s *PermitSigner) RequestSignature(ctx context.Context, permit *entity.PermitPayload) ([]byte, error) {
	if permit == nil {
		return nil, entity.NewSwapError(entity.ErrValidation, "quote carries no authorization payload", nil)
	}
	sig, err := s.wallet.SignTypedData(ctx, permit.EIP712)
	if err != nil {
		s.logger.Warn("Typed-data signature declined", "error", err)
		return nil, entity.NewSwapError(entity.ErrSignatureRejected, "signature was declined or failed", err)
	}
	return sig, nil
}

// SpliceSignature appends the signature to the base calldata per the quote's
// wire variant. Dispatch is purely on the variant tag; the calldata shape is
// never inspected.
func (s *PermitSigner) SpliceSignature(calldata string, sig []byte, variant entity.SpliceVariant) (string, error) {
	base, err := hexutil.Decode(calldata)
	if err != nil {
		return "", entity.NewSwapError(entity.ErrValidation, "transaction calldata is not valid hex", err)
	}

	switch variant {
	case entity.SpliceNoLengthPrefix:
		return hexutil.Encode(append(base, sig...)), nil
	case entity.SpliceLengthPrefixed:
		lengthWord := common.LeftPadBytes(big.NewInt(int64(len(sig))).Bytes(), 32)
		spliced := append(base, lengthWord...)
		return hexutil.Encode(append(spliced, sig...)), nil
	default:
		return "", entity.NewSwapError(entity.ErrValidation, "unknown signature-splice variant", nil)
	}
}
