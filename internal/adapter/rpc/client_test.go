package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jeonsevault-wallet/internal/domain/entity"
	"jeonsevault-wallet/internal/pkg/apperrors"
)

// rpcHandler answers JSON-RPC requests from a method -> raw result table.
func rpcHandler(t *testing.T, results map[string]string) func(req JSONRPCRequest) []byte {
	return func(req JSONRPCRequest) []byte {
		result, ok := results[req.Method]
		if !ok {
			resp, err := json.Marshal(JSONRPCResponse{
				ID: req.ID, Jsonrpc: "2.0",
				Error: &JSONRPCError{Code: -32601, Message: "method not found"},
			})
			require.NoError(t, err)
			return resp
		}
		resp, err := json.Marshal(JSONRPCResponse{ID: req.ID, Jsonrpc: "2.0", Result: json.RawMessage(result)})
		require.NoError(t, err)
		return resp
	}
}

func newHTTPNode(t *testing.T, results map[string]string) *httptest.Server {
	answer := rpcHandler(t, results)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req JSONRPCRequest
		require.NoError(t, json.Unmarshal(body, &req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(answer(req))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newWSNode(t *testing.T, results map[string]string) *httptest.Server {
	answer := rpcHandler(t, results)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req JSONRPCRequest
		if json.Unmarshal(msg, &req) != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, answer(req))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_CallHTTP(t *testing.T) {
	srv := newHTTPNode(t, map[string]string{"eth_blockNumber": `"0x10"`})
	c := NewClient(time.Second, zap.NewNop())

	var out hexutil.Uint64
	err := c.Call(context.Background(), entity.RPCURL(srv.URL), "eth_blockNumber", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), uint64(out))
}

func TestClient_CallWS(t *testing.T) {
	srv := newWSNode(t, map[string]string{"eth_chainId": `"0xaa36a7"`})
	c := NewClient(time.Second, zap.NewNop())

	wsURL := entity.RPCURL("ws" + strings.TrimPrefix(srv.URL, "http"))
	var out hexutil.Big
	err := c.Call(context.Background(), wsURL, "eth_chainId", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, int64(11155111), out.ToInt().Int64())
}

func TestClient_CallJSONRPCError(t *testing.T) {
	srv := newHTTPNode(t, map[string]string{})
	c := NewClient(time.Second, zap.NewNop())

	err := c.Call(context.Background(), entity.RPCURL(srv.URL), "eth_getBalance", []any{"0x0", "latest"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrExternalServiceFailure))

	var rpcErr *JSONRPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32601, rpcErr.Code)
}

func TestClient_CallNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(time.Second, zap.NewNop())

	err := c.Call(context.Background(), entity.RPCURL(srv.URL), "eth_blockNumber", nil, nil)
	assert.True(t, errors.Is(err, apperrors.ErrExternalServiceFailure))
}

func TestClient_CallInvalidStructure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"1.0","id":1}`))
	}))
	t.Cleanup(srv.Close)
	c := NewClient(time.Second, zap.NewNop())

	err := c.Call(context.Background(), entity.RPCURL(srv.URL), "eth_blockNumber", nil, nil)
	assert.True(t, errors.Is(err, apperrors.ErrExternalServiceFailure))
}

func TestClient_CallTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	c := NewClient(50*time.Millisecond, zap.NewNop())

	err := c.Call(context.Background(), entity.RPCURL(srv.URL), "eth_blockNumber", nil, nil)
	assert.True(t, errors.Is(err, apperrors.ErrTimeout), "got %v", err)
}

func TestClient_UnsupportedProtocol(t *testing.T) {
	c := NewClient(time.Second, zap.NewNop())
	err := c.Call(context.Background(), entity.RPCURL("ipc:///tmp/geth.ipc"), "eth_blockNumber", nil, nil)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestChecker_CheckRPC(t *testing.T) {
	srv := newHTTPNode(t, map[string]string{"eth_chainId": `"0x7a69"`})
	checker := NewChecker(NewClient(time.Second, zap.NewNop()), zap.NewNop())

	ok, latency, err := checker.CheckRPC(context.Background(), entity.RPCURL(srv.URL), 31337)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, latency, time.Duration(0))

	ok, _, err = checker.CheckRPC(context.Background(), entity.RPCURL(srv.URL), 1)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, apperrors.ErrExternalServiceFailure))
}
