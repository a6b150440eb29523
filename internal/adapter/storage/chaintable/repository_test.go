package chaintable

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jeonsevault-wallet/internal/domain/entity"
	"jeonsevault-wallet/internal/pkg/apperrors"
)

func TestDefaultTable(t *testing.T) {
	specs, err := NewRepository(zap.NewNop()).Specs()
	require.NoError(t, err)
	require.Len(t, specs, 3)

	assert.Equal(t, int64(11155111), specs[0].ID, "sepolia is the default chain")
	assert.Equal(t, entity.RPCURL("https://rpc.sepolia.org"), specs[0].FallbackRPC)
	assert.Equal(t, "sepolia", specs[0].EnvKey)
	assert.Equal(t, entity.NetworkTestnet, specs[0].Network)
	assert.Equal(t, 18, specs[0].Currency.Decimals)

	assert.Equal(t, int64(31337), specs[1].ID)
	assert.Equal(t, entity.NetworkLocal, specs[1].Network)
	assert.Equal(t, int64(1), specs[2].ID)
}

func TestSpecs_SkipsUnusableRows(t *testing.T) {
	doc := []byte(`
chains:
  - id: 10
    name: Good
    rpc: https://good.example
  - id: 0
    name: NoID
    rpc: https://noid.example
  - id: 11
    name: BadURL
    rpc: ftp://bad.example
  - id: 10
    name: Duplicate
    rpc: https://dup.example
`)
	specs, err := NewRepositoryFromYAML(doc, zap.NewNop()).Specs()
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "Good", specs[0].Name)
	assert.Equal(t, "chain_10", specs[0].EnvKey)
}

func TestSpecs_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "malformed", doc: "chains: [oops"},
		{name: "unknown field", doc: "chains:\n  - id: 1\n    rpcs: x\n"},
		{name: "empty", doc: "chains: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRepositoryFromYAML([]byte(tt.doc), zap.NewNop()).Specs()
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInternal))
		})
	}
}
