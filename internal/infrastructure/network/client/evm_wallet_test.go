package client

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "0", false},
		{"0", "0", false},
		{"1000000000000000000", "1000000000000000000", false},
		{"0xde0b6b3a7640000", "1000000000000000000", false},
		{"abc", "", true},
	}
	for _, tc := range cases {
		got, err := parseAmount(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseAmount(%q): expected error, got %s", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseAmount(%q): %v", tc.in, err)
			continue
		}
		if got.String() != tc.want {
			t.Errorf("parseAmount(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseGas(t *testing.T) {
	gas, err := parseGas("250000")
	require.NoError(t, err)
	assert.Equal(t, uint64(250000), gas)

	gas, err = parseGas("")
	require.NoError(t, err)
	assert.Zero(t, gas)

	_, err = parseGas("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.Error(t, err)
}

func TestDecodeCalldata(t *testing.T) {
	data, err := decodeCalldata("0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, data)

	data, err = decodeCalldata("")
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = decodeCalldata("deadbeef")
	require.Error(t, err)
}

func TestSignTypedDataRecoversWalletAddress(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	wallet := &EVMWallet{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
		logger:     zap.NewNop(),
	}

	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"PermitTransferFrom": {
				{Name: "spender", Type: "address"},
				{Name: "amount", Type: "uint256"},
			},
		},
		PrimaryType: "PermitTransferFrom",
		Domain: apitypes.TypedDataDomain{
			Name:    "Permit2",
			ChainId: math.NewHexOrDecimal256(1),
		},
		Message: apitypes.TypedDataMessage{
			"spender": "0x2222222222222222222222222222222222222222",
			"amount":  big.NewInt(1000000).String(),
		},
	}

	sig, err := wallet.SignTypedData(context.Background(), typedData)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	// The signature must recover to the wallet's own address.
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	require.NoError(t, err)
	recovery := make([]byte, 65)
	copy(recovery, sig)
	recovery[64] -= 27
	pubKey, err := crypto.SigToPub(hash, recovery)
	require.NoError(t, err)
	assert.Equal(t, wallet.Address(), crypto.PubkeyToAddress(*pubKey).Hex())
}
