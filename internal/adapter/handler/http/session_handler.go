package http

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"jeonsevault-wallet/internal/application"
	"jeonsevault-wallet/internal/application/port"
	"jeonsevault-wallet/internal/domain/entity"
	"jeonsevault-wallet/internal/pkg/apperrors"
)

// SessionHandler serves the wallet configuration and the hydrated session state.
type SessionHandler struct {
	sessions port.SessionService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewSessionHandler(sessions port.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		validate: validator.New(),
		logger:   logger.Named("SessionHandler"),
	}
}

type configResponse struct {
	DefaultChainID int64                        `json:"defaultChainId"`
	StorageKey     string                       `json:"storageKey"`
	Chains         []entity.ChainDescriptor     `json:"chains"`
	Connectors     []entity.ConnectorDescriptor `json:"connectors"`
}

// GetConfig returns the chains and connectors offered to the UI. Relay project ids are
// never serialized.
func (h *SessionHandler) GetConfig(ctx *fasthttp.RequestCtx) {
	cfg := h.sessions.Config()
	resp := configResponse{
		StorageKey: cfg.StorageKey(),
		Chains:     cfg.Chains(),
		Connectors: cfg.Connectors(),
	}
	if def, ok := cfg.DefaultChain(); ok {
		resp.DefaultChainID = def.ID
	}
	writeJSON(ctx, h.logger, fasthttp.StatusOK, resp)
}

// GetSession returns the connection state hydrated from the request's session cookie.
func (h *SessionHandler) GetSession(ctx *fasthttp.RequestCtx) {
	if scope, ok := application.ScopeFromContext(ctx); ok {
		writeJSON(ctx, h.logger, fasthttp.StatusOK, scope.InitialState)
		return
	}
	state := h.sessions.InitialState(string(ctx.Request.Header.Peek(fasthttp.HeaderCookie)))
	writeJSON(ctx, h.logger, fasthttp.StatusOK, state)
}

type issueSessionRequest struct {
	Address     string `json:"address" validate:"required"`
	ChainID     int64  `json:"chainId" validate:"required,gt=0"`
	ConnectorID string `json:"connectorId" validate:"required"`
}

// IssueSession persists a live connection into the session cookie and returns the state
// the next render will hydrate from it.
func (h *SessionHandler) IssueSession(ctx *fasthttp.RequestCtx) {
	var req issueSessionRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, h.logger, errors.Join(apperrors.ErrInvalidInput, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(ctx, h.logger, errors.Join(apperrors.ErrInvalidInput, err))
		return
	}

	name, value, err := h.sessions.IssueToken(req.Address, req.ChainID, req.ConnectorID)
	if err != nil {
		writeError(ctx, h.logger, err)
		return
	}

	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)
	cookie.SetKey(name)
	cookie.SetValue(value)
	cookie.SetPath("/")
	cookie.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	ctx.Response.Header.SetCookie(cookie)

	writeJSON(ctx, h.logger, fasthttp.StatusOK, h.sessions.InitialState(name+"="+value))
}
