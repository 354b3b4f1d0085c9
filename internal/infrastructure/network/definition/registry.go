package networkdefinition

import (
	"sort"

	"github.com/ssm-official/tinyswap/internal/app/port"
	"github.com/ssm-official/tinyswap/internal/domain/entity"
	"github.com/ssm-official/tinyswap/internal/infrastructure/configloader"
)

// Predefined network definitions. The aggregator exposes one base endpoint
// per chain; the native-asset sentinel is identical everywhere.
var ( //nolint:gochecknoglobals // Global for definitions
	Ethereum = entity.NetworkDefinition{
		ChainID:           1,
		Name:              "Ethereum Mainnet",
		Identifier:        "ethereum",
		NativeSymbol:      "ETH",
		Decimals:          18,
		AggregatorBaseURL: "https://api.0x.org",
		PrimaryRPCURL:     "https://ethereum-rpc.publicnode.com",
		FallbackRPCURLs:   []string{"https://rpc.ankr.com/eth", "https://ethereum.publicnode.com"},
		BlockExplorerURL:  "https://etherscan.io",
		DefaultTokens:     ethereumTokens,
	}
	Optimism = entity.NetworkDefinition{
		ChainID:           10,
		Name:              "OP Mainnet",
		Identifier:        "optimism",
		NativeSymbol:      "ETH",
		Decimals:          18,
		AggregatorBaseURL: "https://optimism.api.0x.org",
		PrimaryRPCURL:     "https://mainnet.optimism.io",
		FallbackRPCURLs:   []string{"https://rpc.ankr.com/optimism", "https://optimism.publicnode.com"},
		BlockExplorerURL:  "https://optimistic.etherscan.io",
		DefaultTokens: withNative("ETH", "Ethereum",
			erc20(10, "0x4200000000000000000000000000000000000006", "WETH", "Wrapped Ether", 18),
			erc20(10, "0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85", "USDC", "USD Coin", 6),
		),
	}
	BSC = entity.NetworkDefinition{
		ChainID:           56,
		Name:              "BNB Smart Chain",
		Identifier:        "bsc",
		NativeSymbol:      "BNB",
		Decimals:          18,
		AggregatorBaseURL: "https://bsc.api.0x.org",
		PrimaryRPCURL:     "https://1rpc.io/bnb",
		FallbackRPCURLs:   []string{"https://bsc-dataseed2.binance.org/", "https://bsc.publicnode.com"},
		BlockExplorerURL:  "https://bscscan.com",
		DefaultTokens: withNative("BNB", "BNB",
			erc20(56, "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c", "WBNB", "Wrapped BNB", 18),
			erc20(56, "0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d", "USDC", "USD Coin", 18),
		),
	}
	Polygon = entity.NetworkDefinition{
		ChainID:           137,
		Name:              "Polygon PoS",
		Identifier:        "polygon",
		NativeSymbol:      "POL",
		Decimals:          18,
		AggregatorBaseURL: "https://polygon.api.0x.org",
		PrimaryRPCURL:     "https://polygon-rpc.com/",
		FallbackRPCURLs:   []string{"https://rpc.ankr.com/polygon", "https://polygon.publicnode.com"},
		BlockExplorerURL:  "https://polygonscan.com",
		DefaultTokens: withNative("POL", "Polygon Ecosystem Token",
			erc20(137, "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", "WPOL", "Wrapped POL", 18),
			erc20(137, "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", "USDC", "USD Coin", 6),
		),
	}
	Base = entity.NetworkDefinition{
		ChainID:           8453,
		Name:              "Base Mainnet",
		Identifier:        "base",
		NativeSymbol:      "ETH",
		Decimals:          18,
		AggregatorBaseURL: "https://base.api.0x.org",
		PrimaryRPCURL:     "https://1rpc.io/base",
		FallbackRPCURLs:   []string{"https://base.publicnode.com", "https://base.llamarpc.com"},
		BlockExplorerURL:  "https://basescan.org",
		DefaultTokens: withNative("ETH", "Ethereum",
			erc20(8453, "0x4200000000000000000000000000000000000006", "WETH", "Wrapped Ether", 18),
			erc20(8453, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", "USDC", "USD Coin", 6),
		),
	}
	Arbitrum = entity.NetworkDefinition{
		ChainID:           42161,
		Name:              "Arbitrum One",
		Identifier:        "arbitrum",
		NativeSymbol:      "ETH",
		Decimals:          18,
		AggregatorBaseURL: "https://arbitrum.api.0x.org",
		PrimaryRPCURL:     "https://arb1.arbitrum.io/rpc",
		FallbackRPCURLs:   []string{"https://arbitrum.llamarpc.com", "https://arbitrum.publicnode.com"},
		BlockExplorerURL:  "https://arbiscan.io",
		DefaultTokens: withNative("ETH", "Ethereum",
			erc20(42161, "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1", "WETH", "Wrapped Ether", 18),
			erc20(42161, "0xaf88d065e77c8cC2239327C5EDb3A432268e5831", "USDC", "USD Coin", 6),
		),
	}
	Avalanche = entity.NetworkDefinition{
		ChainID:           43114,
		Name:              "Avalanche C-Chain",
		Identifier:        "avalanche",
		NativeSymbol:      "AVAX",
		Decimals:          18,
		AggregatorBaseURL: "https://avalanche.api.0x.org",
		PrimaryRPCURL:     "https://api.avax.network/ext/bc/C/rpc",
		FallbackRPCURLs:   []string{"https://avalanche.public-rpc.com", "https://rpc.ankr.com/avalanche"},
		BlockExplorerURL:  "https://snowtrace.io",
		DefaultTokens: withNative("AVAX", "Avalanche",
			erc20(43114, "0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7", "WAVAX", "Wrapped AVAX", 18),
			erc20(43114, "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E", "USDC", "USD Coin", 6),
		),
	}
	Linea = entity.NetworkDefinition{
		ChainID:           59144,
		Name:              "Linea Mainnet",
		Identifier:        "linea",
		NativeSymbol:      "ETH",
		Decimals:          18,
		AggregatorBaseURL: "https://linea.api.0x.org",
		PrimaryRPCURL:     "https://rpc.linea.build",
		FallbackRPCURLs:   []string{"https://linea.blockpi.network/v1/rpc/public"},
		BlockExplorerURL:  "https://lineascan.build",
		DefaultTokens: withNative("ETH", "Ethereum",
			erc20(59144, "0xe5D7C2a44FfDDf6b295A15c148167daaAf5Cf34f", "WETH", "Wrapped Ether", 18),
			erc20(59144, "0x176211869cA2b568f2A7D4EE941E073a821EE1ff", "USDC", "USD Coin", 6),
		),
	}
	Scroll = entity.NetworkDefinition{
		ChainID:           534352,
		Name:              "Scroll Mainnet",
		Identifier:        "scroll",
		NativeSymbol:      "ETH",
		Decimals:          18,
		AggregatorBaseURL: "https://scroll.api.0x.org",
		PrimaryRPCURL:     "https://rpc.scroll.io",
		FallbackRPCURLs:   []string{"https://scroll.blockpi.network/v1/rpc/public"},
		BlockExplorerURL:  "https://scrollscan.com",
		DefaultTokens: withNative("ETH", "Ethereum",
			erc20(534352, "0x5300000000000000000000000000000000000004", "WETH", "Wrapped Ether", 18),
			erc20(534352, "0x06eFdBFf2a14a7c8E15944D1F4A48F9F95F663A4", "USDC", "USD Coin", 6),
		),
	}
	Blast = entity.NetworkDefinition{
		ChainID:           81457,
		Name:              "Blast Mainnet",
		Identifier:        "blast",
		NativeSymbol:      "ETH",
		Decimals:          18,
		AggregatorBaseURL: "https://blast.api.0x.org",
		PrimaryRPCURL:     "https://rpc.ankr.com/blast",
		FallbackRPCURLs:   []string{"https://blast.blockpi.network/v1/rpc/public", "https://blastl2-mainnet.public.blastapi.io"},
		BlockExplorerURL:  "https://blastscan.io",
		DefaultTokens: withNative("ETH", "Ethereum",
			erc20(81457, "0x4300000000000000000000000000000000000004", "WETH", "Wrapped Ether", 18),
			erc20(81457, "0x4300000000000000000000000000000000000003", "USDB", "USDB", 18),
		),
	}
)

// ethereumTokens is the mainnet default list; the other chains carry a
// smaller native/wrapped/stable set.
var ethereumTokens = withNative("ETH", "Ethereum",
	erc20(1, "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "WETH", "Wrapped Ether", 18),
	erc20(1, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "USDC", "USD Coin", 6),
	erc20(1, "0xdAC17F958D2ee523a2206206994597C13D831ec7", "USDT", "Tether USD", 6),
	erc20(1, "0x6B175474E89094C44Da98b954EedeAC495271d0F", "DAI", "Dai Stablecoin", 18),
	erc20(1, "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", "WBTC", "Wrapped Bitcoin", 8),
)

func erc20(chainID uint64, address, symbol, name string, decimals uint8) entity.TokenInfo {
	return entity.TokenInfo{
		ChainID:  chainID,
		Address:  address,
		Symbol:   symbol,
		Name:     name,
		Decimals: decimals,
	}
}

func withNative(symbol, name string, tokens ...entity.TokenInfo) []entity.TokenInfo {
	chainID := uint64(1)
	if len(tokens) > 0 {
		chainID = tokens[0].ChainID
	}
	native := entity.TokenInfo{
		ChainID:  chainID,
		Address:  entity.NativeTokenAddress,
		Symbol:   symbol,
		Name:     name,
		Decimals: 18,
	}
	return append([]entity.TokenInfo{native}, tokens...)
}

// allKnownDefinitions is a helper to quickly access all hardcoded definitions.
var allKnownDefinitions = []entity.NetworkDefinition{
	Ethereum, Optimism, BSC, Polygon, Base,
	Arbitrum, Avalanche, Linea, Scroll, Blast,
}

// Registry implements port.ChainRegistry over the hardcoded definitions,
// merging persisted custom tokens into each chain's default list.
type Registry struct {
	logger     port.Logger
	byChainID  map[uint64]entity.NetworkDefinition
	tokenStore port.TokenStore
}

// NewRegistry creates a Registry. tokenStore may be nil when custom-token
// persistence is disabled; rpcOverrides replace the built-in RPC endpoints.
func NewRegistry(log port.Logger, tokenStore port.TokenStore, rpcOverrides []configloader.NetworkNodeConfig) *Registry {
	byChainID := make(map[uint64]entity.NetworkDefinition, len(allKnownDefinitions))
	for _, def := range allKnownDefinitions {
		byChainID[def.ChainID] = def
	}

	for _, override := range rpcOverrides {
		def, ok := byChainID[override.ChainID]
		if !ok {
			log.Warn("RPC override for unsupported chain id, ignoring", "chain_id", override.ChainID)
			continue
		}
		if override.RPCURL != "" {
			def.PrimaryRPCURL = override.RPCURL
		}
		if len(override.FallbackRPCURLs) > 0 {
			def.FallbackRPCURLs = override.FallbackRPCURLs
		}
		byChainID[override.ChainID] = def
	}

	log.Info("Chain registry initialized", "networks", len(byChainID))
	return &Registry{logger: log, byChainID: byChainID, tokenStore: tokenStore}
}

// Resolve returns the definition for the chain id, falling back to Ethereum
// mainnet for unrecognized ids. It never fails.
func (r *Registry) Resolve(chainID uint64) entity.NetworkDefinition {
	if def, ok := r.byChainID[chainID]; ok {
		return def
	}
	r.logger.Warn("Unknown chain id, falling back to default network", "chain_id", chainID)
	return r.byChainID[Ethereum.ChainID]
}

// TokensFor returns the chain's default tokens followed by persisted custom
// tokens, deduplicated against the defaults by case-insensitive address.
func (r *Registry) TokensFor(chainID uint64) []entity.TokenInfo {
	def := r.Resolve(chainID)
	tokens := make([]entity.TokenInfo, len(def.DefaultTokens))
	copy(tokens, def.DefaultTokens)

	if r.tokenStore == nil {
		return tokens
	}

	custom, err := r.tokenStore.TokensByChain(def.ChainID)
	if err != nil {
		r.logger.Warn("Failed to load custom tokens, returning defaults only", "chain_id", def.ChainID, "error", err)
		return tokens
	}

	for _, token := range custom {
		if containsAddress(tokens, token.Address) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// AllNetworks returns every supported network definition, ordered by chain id.
func (r *Registry) AllNetworks() []entity.NetworkDefinition {
	defs := make([]entity.NetworkDefinition, 0, len(r.byChainID))
	for _, def := range r.byChainID {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ChainID < defs[j].ChainID })
	return defs
}

func containsAddress(tokens []entity.TokenInfo, address string) bool {
	for _, t := range tokens {
		if entity.SameAddress(t.Address, address) {
			return true
		}
	}
	return false
}
