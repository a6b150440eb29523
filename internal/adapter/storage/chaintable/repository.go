package chaintable

import (
	"bytes"
	_ "embed"
	"fmt"

	dto "jeonsevault-wallet/internal/adapter/storage/chaintable/dto"
	"jeonsevault-wallet/internal/domain/entity"
	domainRepo "jeonsevault-wallet/internal/domain/repository"
	"jeonsevault-wallet/internal/pkg/apperrors"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed chains.yaml
var defaultTable []byte

// Compile-time check
var _ domainRepo.ChainTable = (*Repository)(nil)

// Repository implements ChainTable over a YAML document.
type Repository struct {
	source []byte
	logger *zap.Logger
}

// NewRepository returns the table compiled into the binary.
func NewRepository(logger *zap.Logger) *Repository {
	return NewRepositoryFromYAML(defaultTable, logger)
}

// NewRepositoryFromYAML reads the table from the given YAML document.
func NewRepositoryFromYAML(source []byte, logger *zap.Logger) *Repository {
	return &Repository{
		source: source,
		logger: logger.Named("ChainTable"),
	}
}

// Specs decodes the table and maps it to domain chain specs.
func (r *Repository) Specs() ([]entity.ChainSpec, error) {
	var raw dto.TableRaw
	dec := yaml.NewDecoder(bytes.NewReader(r.source))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		r.logger.Error("Failed to decode chain table", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to decode chain table: %v", apperrors.ErrInternal, err)
	}

	specs := toChainSpecs(raw.Chains, r.logger)
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: chain table declares no usable chains", apperrors.ErrInternal)
	}

	r.logger.Debug("Loaded chain table", zap.Int("count", len(specs)))
	return specs, nil
}
