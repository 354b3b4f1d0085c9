package client

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ssm-official/tinyswap/internal/app/port"
	"github.com/ssm-official/tinyswap/internal/domain/entity"
	"github.com/ssm-official/tinyswap/internal/infrastructure/configloader"
)

const defaultProviderConnectionTimeout = 10 * time.Second

// evmWalletProvider implements port.WalletProvider, caching one wallet per
// chain so RPC connections are reused across swap sessions.
type evmWalletProvider struct {
	wallets map[uint64]port.Wallet
	mu      sync.Mutex

	privateKeyHex     string
	connectionTimeout time.Duration
	rpcCallTimeout    time.Duration
	logger            *zap.Logger
}

// NewEVMWalletProvider creates a wallet provider bound to the configured
// local signing key.
func NewEVMWalletProvider(cfg *configloader.Config, logger *zap.Logger) port.WalletProvider {
	return &evmWalletProvider{
		wallets:           make(map[uint64]port.Wallet),
		privateKeyHex:     cfg.Wallet.PrivateKey,
		connectionTimeout: defaultProviderConnectionTimeout,
		rpcCallTimeout:    time.Duration(cfg.Performance.RPCCallTimeoutSeconds) * time.Second,
		logger:            logger.Named("WalletProvider"),
	}
}

// GetWallet returns the cached wallet for the network, dialing it on first use.
func (p *evmWalletProvider) GetWallet(netDef entity.NetworkDefinition) (port.Wallet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if wallet, exists := p.wallets[netDef.ChainID]; exists {
		return wallet, nil
	}

	p.logger.Info("Creating new EVM wallet",
		zap.String("network", netDef.Name),
		zap.String("rpcPrimary", netDef.PrimaryRPCURL))
	wallet, err := NewEVMWallet(netDef, p.privateKeyHex, p.connectionTimeout, p.rpcCallTimeout, p.logger)
	if err != nil {
		p.logger.Error("Failed to create EVM wallet", zap.String("network", netDef.Name), zap.Error(err))
		return nil, fmt.Errorf("failed to create wallet for %s: %w", netDef.Name, err)
	}

	p.wallets[netDef.ChainID] = wallet
	return wallet, nil
}
