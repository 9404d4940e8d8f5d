package tokenmeta

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"alm-vault-indexer/internal/accounting"
)

// ERC20Reader reads token metadata from the chain.
type ERC20Reader interface {
	ERC20Symbol(ctx context.Context, token common.Address) (string, error)
	ERC20Name(ctx context.Context, token common.Address) (string, error)
	ERC20Decimals(ctx context.Context, token common.Address) (int32, error)
	ERC20TotalSupply(ctx context.Context, token common.Address) (*big.Int, error)
}

// Source resolves token metadata against the chain, falling back to the
// static definition table and finally to defaults. Fetch never fails;
// metadata degradation must not stall vault accounting.
type Source struct {
	chain  ERC20Reader
	logger *zap.Logger
}

// NewSource creates a metadata source backed by the given chain reader.
func NewSource(chain ERC20Reader, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{chain: chain, logger: logger}
}

var _ accounting.TokenMetadataSource = (*Source)(nil)

// Fetch resolves metadata for one token. Each field degrades independently:
// a revert on decimals() does not discard a successful symbol() read.
func (s *Source) Fetch(ctx context.Context, addr common.Address) accounting.TokenMetadata {
	def, hasDef := StaticDefinition(addr)

	meta := accounting.TokenMetadata{
		Symbol:      DefaultSymbol,
		Name:        DefaultName,
		Decimals:    DefaultDecimals,
		TotalSupply: zeroSupply,
	}
	if hasDef {
		meta.Symbol = def.Symbol
		meta.Name = def.Name
		meta.Decimals = def.Decimals
	}

	if symbol, err := s.chain.ERC20Symbol(ctx, addr); err == nil && symbol != "" {
		meta.Symbol = symbol
	} else if err != nil && !hasDef {
		s.logger.Debug("token symbol read failed",
			zap.String("token", addr.Hex()), zap.Error(err))
	}

	if name, err := s.chain.ERC20Name(ctx, addr); err == nil && name != "" {
		meta.Name = name
	} else if err != nil && !hasDef {
		s.logger.Debug("token name read failed",
			zap.String("token", addr.Hex()), zap.Error(err))
	}

	if decimals, err := s.chain.ERC20Decimals(ctx, addr); err == nil {
		meta.Decimals = decimals
	} else if !hasDef {
		s.logger.Debug("token decimals read failed, assuming 18",
			zap.String("token", addr.Hex()), zap.Error(err))
	}

	if supply, err := s.chain.ERC20TotalSupply(ctx, addr); err == nil && supply != nil {
		meta.TotalSupply = decimal.NewFromBigInt(supply, 0)
	}

	return meta
}
