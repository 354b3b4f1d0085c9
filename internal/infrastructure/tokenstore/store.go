// Package tokenstore persists user-added custom tokens. Tokens are stored as
// one JSON file per chain id under a data directory and merged into the
// default token list by the chain registry.
package tokenstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ssm-official/tinyswap/internal/app/port"
	"github.com/ssm-official/tinyswap/internal/domain/entity"
)

// FileTokenStore implements port.TokenStore on top of per-chain JSON files.
type FileTokenStore struct {
	dir    string
	logger port.Logger

	mu    sync.Mutex
	cache *gocache.Cache
}

// NewFileTokenStore creates a FileTokenStore rooted at dir. Reads are cached
// for cacheTTL; the cache entry for a chain is dropped on every write.
func NewFileTokenStore(dir string, cacheTTL time.Duration, log port.Logger) *FileTokenStore {
	return &FileTokenStore{
		dir:    dir,
		logger: log,
		cache:  gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// TokensByChain returns the persisted custom tokens for a chain. A missing
// file means no custom tokens, not an error.
func (s *FileTokenStore) TokensByChain(chainID uint64) ([]entity.TokenInfo, error) {
	key := strconv.FormatUint(chainID, 10)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]entity.TokenInfo), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.readFile(chainID)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, tokens)
	return tokens, nil
}

// SaveToken persists a custom token keyed by chain id + address. Saving a
// token that already exists replaces the stored entry.
func (s *FileTokenStore) SaveToken(token entity.TokenInfo) error {
	if token.ChainID == 0 || token.Address == "" {
		return entity.NewSwapError(entity.ErrValidation, "custom token requires a chain id and an address", nil)
	}
	if entity.IsNativeToken(token.Address) {
		return entity.NewSwapError(entity.ErrValidation, "the native asset cannot be saved as a custom token", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.readFile(token.ChainID)
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range tokens {
		if entity.SameAddress(existing.Address, token.Address) {
			tokens[i] = token
			replaced = true
			break
		}
	}
	if !replaced {
		tokens = append(tokens, token)
	}

	if err := s.writeFile(token.ChainID, tokens); err != nil {
		return err
	}
	s.cache.Delete(strconv.FormatUint(token.ChainID, 10))
	s.logger.Info("Custom token persisted", "chain_id", token.ChainID, "address", token.Address, "symbol", token.Symbol)
	return nil
}

func (s *FileTokenStore) path(chainID uint64) string {
	return filepath.Join(s.dir, strconv.FormatUint(chainID, 10)+".json")
}

func (s *FileTokenStore) readFile(chainID uint64) ([]entity.TokenInfo, error) {
	data, err := os.ReadFile(s.path(chainID))
	if err != nil {
		if os.IsNotExist(err) {
			return []entity.TokenInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read token file for chain %d: %w", chainID, err)
	}

	var tokens []entity.TokenInfo
	if err := json.Unmarshal(data, &tokens); err != nil {
		s.logger.Warn("Malformed custom token file, ignoring its contents", "chain_id", chainID, "error", err)
		return []entity.TokenInfo{}, nil
	}
	return tokens, nil
}

func (s *FileTokenStore) writeFile(chainID uint64, tokens []entity.TokenInfo) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create token directory %s: %w", s.dir, err)
	}
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tokens for chain %d: %w", chainID, err)
	}
	if err := os.WriteFile(s.path(chainID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write token file for chain %d: %w", chainID, err)
	}
	return nil
}
