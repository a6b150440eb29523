package http

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"jeonsevault-wallet/internal/application/port"
	"jeonsevault-wallet/internal/pkg/apperrors"
)

type ChainHandler struct {
	service port.ChainService
	timeout time.Duration
	logger  *zap.Logger
}

func NewChainHandler(service port.ChainService, timeout time.Duration, logger *zap.Logger) *ChainHandler {
	return &ChainHandler{
		service: service,
		timeout: timeout,
		logger:  logger.Named("ChainHandler"),
	}
}

// requestContext bounds the upstream work of one request.
func (h *ChainHandler) requestContext() (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), h.timeout)
}

// GetBlockNumber handles requests for the latest block of a chain.
func (h *ChainHandler) GetBlockNumber(ctx *fasthttp.RequestCtx) {
	chainID, err := chainIDParam(ctx)
	if err != nil {
		writeError(ctx, h.logger, err)
		return
	}

	reqCtx, cancel := h.requestContext()
	defer cancel()

	height, err := h.service.GetBlockNumber(reqCtx, chainID)
	if err != nil {
		writeError(ctx, h.logger, err)
		return
	}
	writeJSON(ctx, h.logger, fasthttp.StatusOK, height)
}

// GetBalance handles requests for an account's native balance on a chain.
func (h *ChainHandler) GetBalance(ctx *fasthttp.RequestCtx) {
	chainID, err := chainIDParam(ctx)
	if err != nil {
		writeError(ctx, h.logger, err)
		return
	}
	address, _ := ctx.UserValue("address").(string)

	reqCtx, cancel := h.requestContext()
	defer cancel()

	balance, err := h.service.GetBalance(reqCtx, chainID, address)
	if err != nil {
		writeError(ctx, h.logger, err)
		return
	}
	writeJSON(ctx, h.logger, fasthttp.StatusOK, balance)
}

// GetTransports handles requests for the probe status of every transport.
func (h *ChainHandler) GetTransports(ctx *fasthttp.RequestCtx) {
	reqCtx, cancel := h.requestContext()
	defer cancel()

	statuses, err := h.service.CheckTransports(reqCtx)
	if err != nil {
		writeError(ctx, h.logger, err)
		return
	}
	writeJSON(ctx, h.logger, fasthttp.StatusOK, statuses)
}

type invalidateResponse struct {
	Scope       string `json:"scope"`
	Invalidated int    `json:"invalidated"`
}

// Invalidate drops cached query results, e.g. balances after a deposit was created.
func (h *ChainHandler) Invalidate(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	scope := string(args.Peek("scope"))

	var chainID int64
	if raw := string(args.Peek("chainId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(ctx, h.logger, errors.Join(apperrors.ErrInvalidInput, err))
			return
		}
		chainID = id
	}

	n, err := h.service.Invalidate(scope, chainID, string(args.Peek("address")))
	if err != nil {
		writeError(ctx, h.logger, err)
		return
	}
	h.logger.Info("Invalidated cached queries",
		zap.String("scope", scope), zap.Int64("chainId", chainID), zap.Int("count", n),
	)
	writeJSON(ctx, h.logger, fasthttp.StatusOK, invalidateResponse{Scope: scope, Invalidated: n})
}
