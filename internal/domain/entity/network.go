package entity

// NativeTokenAddress is the sentinel address the aggregator uses to denote the
// chain's native asset in a token-address-keyed interface. It is the same on
// every supported chain and never has an allowance or approval requirement.
const NativeTokenAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// NetworkDefinition holds the configuration for a specific blockchain network.
// This structure is defined at the domain level to be used across application and infrastructure layers.
type NetworkDefinition struct {
	ChainID           uint64   `json:"chainId" yaml:"chainId"`
	Name              string   `json:"name" yaml:"name"`
	Identifier        string   `json:"identifier" yaml:"identifier"`
	NativeSymbol      string   `json:"nativeSymbol" yaml:"nativeSymbol"`
	Decimals          uint8    `json:"decimals" yaml:"decimals"`
	AggregatorBaseURL string   `json:"aggregatorBaseUrl" yaml:"aggregatorBaseUrl"`
	PrimaryRPCURL     string   `json:"primaryRpcUrl" yaml:"primaryRpcUrl"`
	FallbackRPCURLs   []string `json:"fallbackRpcUrls" yaml:"fallbackRpcUrls"`
	BlockExplorerURL  string   `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
	DefaultTokens     []TokenInfo
}

// IsNativeToken reports whether the given address is the native-asset sentinel.
func IsNativeToken(address string) bool {
	return SameAddress(address, NativeTokenAddress)
}
