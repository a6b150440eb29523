package http

import (
	"time"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	handler "jeonsevault-wallet/internal/adapter/handler/http"
	"jeonsevault-wallet/internal/application"
)

// RegisterRoutes sets up the API routes, the metrics endpoint and the health check.
// Only routes that read the session scope hydrate the session cookie.
func RegisterRoutes(
	r *router.Router,
	provider *application.SessionProvider,
	chains *handler.ChainHandler,
	sessions *handler.SessionHandler,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) {
	logger.Info("Setting up application-specific routes...")

	r.GET("/config", sessions.GetConfig)
	r.GET("/session", ScopeMiddleware(provider, sessions.GetSession))
	r.POST("/session", sessions.IssueSession)
	r.GET("/chains/{chainId:[0-9]+}/block", chains.GetBlockNumber)
	r.GET("/chains/{chainId:[0-9]+}/balances/{address}", chains.GetBalance)
	r.GET("/transports", chains.GetTransports)
	r.POST("/queries/invalidate", chains.Invalidate)

	if gatherer != nil {
		logger.Info("Setting up metrics route...")
		r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(
			promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		))
	}

	logger.Info("Setting up health check route...")
	r.GET("/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("OK")
	})

	logger.Info("All routes registered.")
}

// ScopeMiddleware hydrates the session cookie of the request and attaches the scope.
func ScopeMiddleware(provider *application.SessionProvider, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		scope := provider.Render(string(ctx.Request.Header.Peek(fasthttp.HeaderCookie)))
		application.AttachScope(ctx, scope)
		next(ctx)
	}
}

// LoggingMiddleware logs every request with its status and duration.
func LoggingMiddleware(logger *zap.Logger, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	logger = logger.Named("HTTP")
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		logger.Info("Request handled",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("uri", ctx.RequestURI()),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
