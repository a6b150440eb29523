package repository

import "jeonsevault-wallet/internal/domain/entity"

// ChainTable provides the default table of supported chains.
type ChainTable interface {
	// Specs returns the supported chains in declaration order.
	Specs() ([]entity.ChainSpec, error)
}
