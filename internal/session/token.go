package session

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"jeonsevault-wallet/internal/domain"
	"jeonsevault-wallet/internal/domain/entity"
)

// CurrentVersion is the newest persisted-state layout this package understands.
const CurrentVersion = 2

const mapType = "Map"

// Token is the decoded content of a session token.
type Token struct {
	Version     int
	ChainID     int64
	Current     string
	Connections []Connection
}

// Connection is one persisted wallet connection, in persisted order.
type Connection struct {
	UID       string
	Accounts  []string
	ChainID   int64
	Connector ConnectorRef
}

// ConnectorRef identifies the connector a connection was made with.
type ConnectorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	UID  string `json:"uid"`
}

type persisted struct {
	State   *persistedState `json:"state"`
	Version *int            `json:"version"`
}

type persistedState struct {
	ChainID     int64     `json:"chainId"`
	Current     *string   `json:"current"`
	Connections taggedMap `json:"connections"`
}

// taggedMap is how a JavaScript Map survives JSON: {"__type":"Map","value":[[k,v],...]}.
type taggedMap struct {
	Type  string            `json:"__type"`
	Value []json.RawMessage `json:"value"`
}

type persistedConnection struct {
	Accounts  []string     `json:"accounts"`
	ChainID   int64        `json:"chainId"`
	Connector ConnectorRef `json:"connector"`
}

// CookieName is the cookie that carries the session token for a storage key.
func CookieName(storageKey string) string {
	return storageKey + ".store"
}

// TokenFromCookieHeader extracts the session token from a Cookie header value. A value
// wrapped in double quotes (RFC 6265 quoted form) is unwrapped.
func TokenFromCookieHeader(header, storageKey string) (string, bool) {
	name := CookieName(storageKey)
	for _, part := range strings.Split(header, ";") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if found && k == name {
			if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
				v = v[1 : len(v)-1]
			}
			return v, true
		}
	}
	return "", false
}

// Decode parses a session token. Every failure wraps domain.ErrTokenDecode.
func Decode(token string) (Token, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Token{}, fmt.Errorf("%w: empty token", domain.ErrTokenDecode)
	}
	if unescaped, err := url.QueryUnescape(token); err == nil {
		token = unescaped
	}

	var p persisted
	if err := json.Unmarshal([]byte(token), &p); err != nil {
		return Token{}, fmt.Errorf("%w: %v", domain.ErrTokenDecode, err)
	}
	if p.State == nil {
		return Token{}, fmt.Errorf("%w: missing state", domain.ErrTokenDecode)
	}

	out := Token{ChainID: p.State.ChainID}
	if p.Version != nil {
		out.Version = *p.Version
	}
	if out.Version > CurrentVersion {
		return Token{}, fmt.Errorf("%w: unsupported version %d", domain.ErrTokenDecode, out.Version)
	}
	if p.State.Current != nil {
		out.Current = *p.State.Current
	}

	conns := p.State.Connections
	if conns.Type != "" && conns.Type != mapType {
		return Token{}, fmt.Errorf("%w: connections has type %q", domain.ErrTokenDecode, conns.Type)
	}
	for i, raw := range conns.Value {
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			return Token{}, fmt.Errorf("%w: connection %d is not a key/value pair", domain.ErrTokenDecode, i)
		}
		var uid string
		if err := json.Unmarshal(pair[0], &uid); err != nil {
			return Token{}, fmt.Errorf("%w: connection %d key: %v", domain.ErrTokenDecode, i, err)
		}
		var pc persistedConnection
		if err := json.Unmarshal(pair[1], &pc); err != nil {
			return Token{}, fmt.Errorf("%w: connection %d: %v", domain.ErrTokenDecode, i, err)
		}
		out.Connections = append(out.Connections, Connection{
			UID:       uid,
			Accounts:  pc.Accounts,
			ChainID:   pc.ChainID,
			Connector: pc.Connector,
		})
	}

	return out, nil
}

// Snapshot is a live connection to persist into a token.
type Snapshot struct {
	Accounts  []string
	ChainID   int64
	Connector entity.ConnectorDescriptor
}

// Encode produces the URL-escaped token for a snapshot. The connection uid is derived from
// the connector id so that equal snapshots encode identically.
func Encode(s Snapshot) (string, error) {
	uid := "conn-" + s.Connector.ID
	conn, err := json.Marshal(persistedConnection{
		Accounts: s.Accounts,
		ChainID:  s.ChainID,
		Connector: ConnectorRef{
			ID:   s.Connector.ID,
			Name: s.Connector.Name,
			Type: string(s.Connector.Kind),
			UID:  uid,
		},
	})
	if err != nil {
		return "", err
	}
	key, err := json.Marshal(uid)
	if err != nil {
		return "", err
	}
	pair, err := json.Marshal([]json.RawMessage{key, conn})
	if err != nil {
		return "", err
	}

	version := CurrentVersion
	doc, err := json.Marshal(persisted{
		State: &persistedState{
			ChainID:     s.ChainID,
			Current:     &uid,
			Connections: taggedMap{Type: mapType, Value: []json.RawMessage{pair}},
		},
		Version: &version,
	})
	if err != nil {
		return "", err
	}
	return url.QueryEscape(string(doc)), nil
}
