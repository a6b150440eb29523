package chaintable

import (
	"fmt"
	"strings"

	dto "jeonsevault-wallet/internal/adapter/storage/chaintable/dto"
	"jeonsevault-wallet/internal/domain/entity"

	"go.uber.org/zap"
)

// mapNetworkType converts a raw DTO network type to its domain entity counterpart.
func mapNetworkType(rawType dto.NetworkTypeRaw) entity.NetworkType {
	switch rawType {
	case dto.NetworkMainnetRaw:
		return entity.NetworkMainnet
	case dto.NetworkTestnetRaw:
		return entity.NetworkTestnet
	case dto.NetworkLocalRaw:
		return entity.NetworkLocal
	default:
		return entity.NetworkType(rawType)
	}
}

// toChainSpecs converts raw rows to domain chain specs. Rows with a missing id, a duplicate
// id or an unusable fallback endpoint are skipped: a chain without a transport cannot be
// offered.
func toChainSpecs(rawChains []dto.ChainRaw, logger *zap.Logger) []entity.ChainSpec {
	if rawChains == nil {
		return nil
	}
	seen := make(map[int64]struct{}, len(rawChains))
	specs := make([]entity.ChainSpec, 0, len(rawChains))
	for _, raw := range rawChains {
		if raw.ID <= 0 {
			logger.Warn("Skipping chain row without a valid id", zap.String("name", raw.Name))
			continue
		}
		if _, dup := seen[raw.ID]; dup {
			logger.Warn("Skipping duplicate chain row", zap.Int64("chainId", raw.ID))
			continue
		}
		rpcURL, err := entity.NewRPCURL(raw.RPC)
		if err != nil {
			logger.Warn("Skipping chain row with invalid fallback RPC URL",
				zap.Int64("chainId", raw.ID),
				zap.String("rawUrl", raw.RPC),
				zap.Error(err))
			continue
		}
		seen[raw.ID] = struct{}{}

		envKey := strings.ToLower(strings.TrimSpace(raw.EnvKey))
		if envKey == "" {
			envKey = fmt.Sprintf("chain_%d", raw.ID)
		}

		specs = append(specs, entity.ChainSpec{
			ID:        raw.ID,
			Name:      raw.Name,
			ShortName: raw.ShortName,
			Network:   mapNetworkType(raw.Network),
			Currency: entity.Currency{
				Name:     raw.Currency.Name,
				Symbol:   raw.Currency.Symbol,
				Decimals: raw.Currency.Decimals,
			},
			FallbackRPC: rpcURL,
			EnvKey:      envKey,
			ExplorerURL: raw.Explorer,
		})
	}
	return specs
}
