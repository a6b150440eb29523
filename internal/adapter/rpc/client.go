package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"jeonsevault-wallet/internal/domain/entity"
	domainService "jeonsevault-wallet/internal/domain/service"
	"jeonsevault-wallet/internal/pkg/apperrors"

	"github.com/gorilla/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.RPCCaller = (*Client)(nil)

const defaultRequestTimeout = 10 * time.Second

// JSONRPCRequest is a JSON-RPC 2.0 request envelope.
type JSONRPCRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// JSONRPCResponse defines the basic structure for a JSON-RPC response.
type JSONRPCResponse struct {
	ID      any             `json:"id"`
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError defines the structure for a JSON-RPC error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("json-rpc error %d: %s", e.Code, e.Message)
}

// Client performs JSON-RPC calls over HTTP(S) with fasthttp and over WS(S) with gorilla/websocket.
type Client struct {
	client *fasthttp.Client
	dialer *websocket.Dialer
	nextID atomic.Uint64
	logger *zap.Logger
}

// NewClient creates a JSON-RPC client with a per-request timeout.
func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
		},
		logger: logger.Named("RPCClient"),
	}
}

// Call sends method with params to rpcURL and decodes the result into out (if non-nil).
func (c *Client) Call(ctx context.Context, rpcURL entity.RPCURL, method string, params []any, out any) error {
	if params == nil {
		params = []any{}
	}
	payload, err := json.Marshal(JSONRPCRequest{
		Jsonrpc: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s request: %v", apperrors.ErrInvalidInput, method, err)
	}

	var body []byte
	switch rpcURL.Protocol() {
	case entity.ProtocolHTTP, entity.ProtocolHTTPS:
		body, err = c.postHTTP(ctx, rpcURL.String(), payload)
	case entity.ProtocolWS, entity.ProtocolWSS:
		body, err = c.roundTripWS(ctx, rpcURL.String(), payload)
	default:
		c.logger.Warn("Skipping call for unsupported protocol", zap.String("url", rpcURL.String()))
		return fmt.Errorf("%w: unsupported protocol in URL %s", apperrors.ErrInvalidInput, rpcURL)
	}
	if err != nil {
		return err
	}

	result, err := c.decodeResponse(rpcURL.String(), body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("%w: rpc %s returned undecodable %s result: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, method, err,
		)
	}
	return nil
}

// effectiveTimeout picks the shorter of the client timeout and the context deadline.
func (c *Client) effectiveTimeout(ctx context.Context) time.Duration {
	timeout := c.client.ReadTimeout
	if deadline, ok := ctx.Deadline(); ok {
		requestTimeout := time.Until(deadline)
		if timeout <= 0 || requestTimeout < timeout {
			timeout = requestTimeout
		}
	}
	return timeout
}

// postHTTP performs the JSON-RPC exchange over HTTP/HTTPS.
func (c *Client) postHTTP(ctx context.Context, rpcURL string, payload []byte) ([]byte, error) {
	timeout := c.effectiveTimeout(ctx)
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: http request to %s: deadline already passed", apperrors.ErrTimeout, rpcURL)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rpcURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	if err := c.client.DoTimeout(req, resp, timeout); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			c.logger.Debug("HTTP RPC call timed out",
				zap.String("url", rpcURL), zap.Duration("timeout", timeout), zap.Error(err),
			)
			return nil, fmt.Errorf("%w: http request to %s timed out after %v: %v",
				apperrors.ErrTimeout, rpcURL, timeout, err,
			)
		}
		c.logger.Debug("HTTP RPC call failed", zap.String("url", rpcURL), zap.Error(err))
		return nil, fmt.Errorf("%w: http request to %s failed: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, err,
		)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Debug("HTTP RPC call returned non-OK status",
			zap.String("url", rpcURL), zap.Int("statusCode", resp.StatusCode()),
		)
		return nil, fmt.Errorf("%w: rpc %s returned non-OK http status: %d",
			apperrors.ErrExternalServiceFailure, rpcURL, resp.StatusCode(),
		)
	}

	return append([]byte(nil), resp.Body()...), nil
}

// roundTripWS performs the JSON-RPC exchange over WS/WSS on a short-lived connection.
func (c *Client) roundTripWS(ctx context.Context, rpcURL string, payload []byte) ([]byte, error) {
	conn, _, err := c.dialer.DialContext(ctx, rpcURL, nil)
	if err != nil {
		c.logger.Debug("WSS dial failed", zap.String("url", rpcURL), zap.Error(err))
		return nil, c.wsError(ctx, "dial", rpcURL, err)
	}
	defer conn.Close()

	timeout := c.effectiveTimeout(ctx)
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	_ = conn.SetReadDeadline(time.Now().Add(timeout))

	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.logger.Debug("WSS write message failed", zap.String("url", rpcURL), zap.Error(err))
		return nil, c.wsError(ctx, "write to", rpcURL, err)
	}

	_, message, err := conn.ReadMessage()
	if err != nil {
		c.logger.Debug("WSS read message failed", zap.String("url", rpcURL), zap.Error(err))
		return nil, c.wsError(ctx, "read from", rpcURL, err)
	}
	return message, nil
}

func (c *Client) wsError(ctx context.Context, op, rpcURL string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: wss %s %s timed out: %v", apperrors.ErrTimeout, op, rpcURL, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: wss %s %s timed out: %v", apperrors.ErrTimeout, op, rpcURL, err)
	}
	return fmt.Errorf("%w: wss %s %s failed: %v", apperrors.ErrExternalServiceFailure, op, rpcURL, err)
}

// decodeResponse checks that body is a valid, successful JSON-RPC response and returns its result.
func (c *Client) decodeResponse(rpcURL string, body []byte) (json.RawMessage, error) {
	var rpcResp JSONRPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		c.logger.Debug("RPC returned invalid JSON",
			zap.String("url", rpcURL), zap.ByteString("body", body), zap.Error(err),
		)
		return nil, fmt.Errorf("%w: rpc %s returned invalid JSON response: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, err,
		)
	}

	if rpcResp.Error != nil {
		c.logger.Debug("RPC returned JSON-RPC error",
			zap.String("url", rpcURL),
			zap.Int("errorCode", rpcResp.Error.Code),
			zap.String("errorMessage", rpcResp.Error.Message),
		)
		return nil, fmt.Errorf("%w: rpc %s: %w", apperrors.ErrExternalServiceFailure, rpcURL, rpcResp.Error)
	}

	if rpcResp.Jsonrpc != "2.0" || rpcResp.Result == nil {
		c.logger.Debug("RPC returned invalid JSON-RPC structure",
			zap.String("url", rpcURL), zap.ByteString("body", body),
		)
		return nil, fmt.Errorf("%w: rpc %s returned invalid JSON-RPC structure",
			apperrors.ErrExternalServiceFailure, rpcURL,
		)
	}

	return rpcResp.Result, nil
}
