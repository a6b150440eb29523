package http

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"jeonsevault-wallet/internal/domain"
	"jeonsevault-wallet/internal/pkg/apperrors"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain and application errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrChainNotSupported), errors.Is(err, apperrors.ErrNotFound):
		return fasthttp.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAddress), errors.Is(err, apperrors.ErrInvalidInput):
		return fasthttp.StatusBadRequest
	case errors.Is(err, apperrors.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return fasthttp.StatusGatewayTimeout
	case errors.Is(err, domain.ErrFetchFailed):
		return fasthttp.StatusBadGateway
	default:
		return fasthttp.StatusInternalServerError
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, logger *zap.Logger, status int, body any) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if err := json.NewEncoder(ctx).Encode(body); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(ctx *fasthttp.RequestCtx, logger *zap.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == fasthttp.StatusInternalServerError {
		logger.Error("Request failed", zap.ByteString("uri", ctx.RequestURI()), zap.Error(err))
		msg = "Internal Server Error"
	} else {
		logger.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(ctx, logger, status, errorResponse{Error: msg})
}

// chainIDParam reads the chainId path parameter.
func chainIDParam(ctx *fasthttp.RequestCtx) (int64, error) {
	raw, ok := ctx.UserValue("chainId").(string)
	if !ok {
		return 0, apperrors.ErrInvalidInput
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Join(apperrors.ErrInvalidInput, err)
	}
	return id, nil
}
