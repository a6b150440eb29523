package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"jeonsevault-wallet/internal/application/port"
	"jeonsevault-wallet/internal/domain"
	"jeonsevault-wallet/internal/domain/entity"
	"jeonsevault-wallet/internal/metrics"
	"jeonsevault-wallet/internal/pkg/apperrors"
	"jeonsevault-wallet/internal/query"
	"jeonsevault-wallet/internal/session"
)

// Compile-time check
var _ port.SessionService = (*SessionProvider)(nil)

// Scope is what a rendered page sees: the shared wallet config, the provider's query cache
// and the connection state hydrated from the request.
type Scope struct {
	Config       *entity.WalletClientConfig
	Cache        *query.Cache
	InitialState entity.InitialConnectionState
}

type scopeKey struct{}

// WithScope returns a context carrying s.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFromContext returns the scope attached to ctx. It also works on a
// *fasthttp.RequestCtx populated by AttachScope.
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok && s != nil
}

// UserValueSetter is satisfied by *fasthttp.RequestCtx.
type UserValueSetter interface {
	SetUserValue(key, value any)
}

// AttachScope stores s as a request user value.
func AttachScope(req UserValueSetter, s *Scope) {
	req.SetUserValue(scopeKey{}, s)
}

// SessionProvider owns the wallet config and the query cache and hydrates one Scope per
// request.
type SessionProvider struct {
	cfg      *entity.WalletClientConfig
	cache    *query.Cache
	recorder metrics.Recorder
	logger   *zap.Logger
}

// NewSessionProvider requires a resolved config and a cache, so that configuration always
// exists before any session is hydrated.
func NewSessionProvider(
	cfg *entity.WalletClientConfig,
	cache *query.Cache,
	recorder metrics.Recorder,
	logger *zap.Logger,
) (*SessionProvider, error) {
	if cfg == nil {
		return nil, errors.New("session provider: wallet config is required")
	}
	if cache == nil {
		return nil, errors.New("session provider: query cache is required")
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &SessionProvider{
		cfg:      cfg,
		cache:    cache,
		recorder: recorder,
		logger:   logger.Named("SessionProvider"),
	}, nil
}

// Config returns the wallet client configuration.
func (p *SessionProvider) Config() *entity.WalletClientConfig {
	return p.cfg
}

// Render hydrates the session cookie and builds the request scope. It never fails.
func (p *SessionProvider) Render(cookieHeader string) *Scope {
	return &Scope{
		Config:       p.cfg,
		Cache:        p.cache,
		InitialState: p.InitialState(cookieHeader),
	}
}

// InitialState hydrates the session cookie found in cookieHeader.
func (p *SessionProvider) InitialState(cookieHeader string) entity.InitialConnectionState {
	state := session.HydrateCookieHeader(p.cfg, cookieHeader)
	if state.Connected {
		p.recorder.IncCounter(metrics.HydrateConnected, nil)
		p.logger.Debug("Hydrated session",
			zap.String("connector", state.ConnectorID),
			zap.Int64("chainId", state.ChainID),
		)
	} else {
		p.recorder.IncCounter(metrics.HydrateDisconnected, nil)
	}
	return state
}

// IssueToken validates a live connection and encodes it the way the client persists it.
func (p *SessionProvider) IssueToken(address string, chainID int64, connectorID string) (string, string, error) {
	if !common.IsHexAddress(address) {
		return "", "", fmt.Errorf("%w: %q", domain.ErrInvalidAddress, address)
	}
	if _, ok := p.cfg.Chain(chainID); !ok {
		return "", "", fmt.Errorf("%w: %d", domain.ErrChainNotSupported, chainID)
	}
	connector, ok := p.cfg.Connector(connectorID, "")
	if !ok {
		return "", "", fmt.Errorf("%w: unknown connector %q", apperrors.ErrInvalidInput, connectorID)
	}
	if !connector.Functional() {
		return "", "", fmt.Errorf("%w: connector %q is not configured", apperrors.ErrInvalidInput, connectorID)
	}

	token, err := session.Encode(session.Snapshot{
		Accounts:  []string{common.HexToAddress(address).Hex()},
		ChainID:   chainID,
		Connector: connector,
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: encode session: %v", apperrors.ErrInternal, err)
	}
	return session.CookieName(p.cfg.StorageKey()), token, nil
}
