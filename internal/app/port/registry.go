package port

import "github.com/ssm-official/tinyswap/internal/domain/entity"

// ChainRegistry resolves chain ids to network configuration and token lists.
type ChainRegistry interface {
	// Resolve returns the configured network for the chain id, falling back
	// to the default network for unrecognized ids. It never fails.
	Resolve(chainID uint64) entity.NetworkDefinition

	// TokensFor returns the default token list for the chain plus persisted
	// custom tokens, deduplicated against the defaults by address.
	TokensFor(chainID uint64) []entity.TokenInfo

	// AllNetworks returns every supported network definition.
	AllNetworks() []entity.NetworkDefinition
}

// TokenStore persists user-added custom tokens keyed by chain id + address.
type TokenStore interface {
	TokensByChain(chainID uint64) ([]entity.TokenInfo, error)
	SaveToken(token entity.TokenInfo) error
}
