package entity

import "strings"

// TokenInfo holds the details of a specific token.
type TokenInfo struct {
	ChainID  uint64 `json:"chainId"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	LogoURI  string `json:"logoURI,omitempty"`
}

// SameAddress reports whether two addresses identify the same token.
// Addresses are compared case-insensitively; checksum casing is not identity.
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
