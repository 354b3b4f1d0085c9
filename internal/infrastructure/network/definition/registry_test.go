package networkdefinition

import (
	"testing"

	"github.com/ssm-official/tinyswap/internal/domain/entity"
	"github.com/ssm-official/tinyswap/internal/infrastructure/configloader"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type stubTokenStore struct {
	tokens map[uint64][]entity.TokenInfo
	err    error
}

func (s *stubTokenStore) TokensByChain(chainID uint64) ([]entity.TokenInfo, error) {
	return s.tokens[chainID], s.err
}

func (s *stubTokenStore) SaveToken(entity.TokenInfo) error { return nil }

func TestResolveKnownChain(t *testing.T) {
	r := NewRegistry(nopLogger{}, nil, nil)

	def := r.Resolve(8453)
	if def.Identifier != "base" {
		t.Errorf("Resolve(8453) = %q, want base", def.Identifier)
	}
	if def.AggregatorBaseURL != "https://base.api.0x.org" {
		t.Errorf("unexpected aggregator endpoint %q", def.AggregatorBaseURL)
	}
}

func TestResolveUnknownChainFallsBack(t *testing.T) {
	r := NewRegistry(nopLogger{}, nil, nil)

	def := r.Resolve(999999)
	if def.ChainID != 1 {
		t.Errorf("unknown chain resolved to %d, want default network 1", def.ChainID)
	}
}

func TestTokensForMergesCustomTokens(t *testing.T) {
	store := &stubTokenStore{tokens: map[uint64][]entity.TokenInfo{
		1: {
			// Duplicate of the default USDC entry, differing only in case.
			{ChainID: 1, Address: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Symbol: "USDC", Decimals: 6},
			{ChainID: 1, Address: "0x514910771AF9Ca656af840dff83E8264EcF986CA", Symbol: "LINK", Decimals: 18},
		},
	}}
	r := NewRegistry(nopLogger{}, store, nil)

	defaults := len(r.Resolve(1).DefaultTokens)
	tokens := r.TokensFor(1)
	if len(tokens) != defaults+1 {
		t.Fatalf("got %d tokens, want %d defaults + 1 custom", len(tokens), defaults)
	}
	last := tokens[len(tokens)-1]
	if last.Symbol != "LINK" {
		t.Errorf("custom token not appended, got %q", last.Symbol)
	}
}

func TestNativeSentinelLeadsEveryDefaultList(t *testing.T) {
	r := NewRegistry(nopLogger{}, nil, nil)
	for _, def := range r.AllNetworks() {
		if len(def.DefaultTokens) == 0 {
			t.Errorf("chain %d has no default tokens", def.ChainID)
			continue
		}
		if !entity.IsNativeToken(def.DefaultTokens[0].Address) {
			t.Errorf("chain %d default list does not start with the native sentinel", def.ChainID)
		}
	}
}

func TestRPCOverrides(t *testing.T) {
	overrides := []configloader.NetworkNodeConfig{
		{ChainID: 1, RPCURL: "http://localhost:8545"},
		{ChainID: 424242, RPCURL: "http://ignored"},
	}
	r := NewRegistry(nopLogger{}, nil, overrides)

	if got := r.Resolve(1).PrimaryRPCURL; got != "http://localhost:8545" {
		t.Errorf("override not applied, primary RPC = %q", got)
	}
	if got := r.Resolve(10).PrimaryRPCURL; got == "http://ignored" {
		t.Errorf("override for unsupported chain leaked into chain 10")
	}
}
