// Package registry resolves the wallet client configuration: which chains the UI
// supports, which transport each chain uses and which wallet connectors are offered.
//
// Resolution is a pure function of its inputs. Missing or unusable configuration is never
// an error; it is replaced by a documented fallback and reported as a Substitution so the
// caller can log it.
package registry

import (
	"fmt"
	"strings"

	"jeonsevault-wallet/internal/domain/entity"
)

const (
	// DefaultAppName is the display name of the branded in-app wallet connector.
	DefaultAppName = "JeonseVault"

	// PlaceholderProjectID stands in for a missing relay project id.
	PlaceholderProjectID = "demo-project-id"

	// DefaultStorageKey prefixes the session cookie name ("<key>.store").
	DefaultStorageKey = "wagmi"
)

// Connector ids as they appear in persisted sessions.
const (
	InjectedConnectorID   = "injected"
	BrandedAppConnectorID = "coinbaseWalletSDK"
	WalletLinkConnectorID = "walletConnect"
)

// Env holds the optional inputs of resolution. The zero value is valid.
type Env struct {
	// RPCOverrides maps a chain's env key (e.g. "sepolia") to an endpoint URL.
	RPCOverrides map[string]string
	ProjectID    string
	AppName      string
	ShowQRModal  bool
	StorageKey   string
	// OmitUnconfigured drops connectors whose credentials are missing instead of
	// listing them with a placeholder.
	OmitUnconfigured bool
}

// Substitution records a fallback applied during resolution.
type Substitution struct {
	Field    string
	Fallback string
	Reason   string
}

func (s Substitution) String() string {
	return fmt.Sprintf("%s: %s (using %q)", s.Field, s.Reason, s.Fallback)
}

// ResolveConfig builds the wallet client configuration from env and the chain table.
func ResolveConfig(env Env, table []entity.ChainSpec) (*entity.WalletClientConfig, []Substitution) {
	var subs []Substitution

	chains := make([]entity.ChainDescriptor, 0, len(table))
	for _, spec := range table {
		desc, sub := resolveChain(spec, env.RPCOverrides[spec.EnvKey])
		if sub != nil {
			subs = append(subs, *sub)
		}
		chains = append(chains, desc)
	}

	connectors, connSubs := resolveConnectors(env)
	subs = append(subs, connSubs...)

	storageKey := strings.TrimSpace(env.StorageKey)
	if storageKey == "" {
		storageKey = DefaultStorageKey
	}

	return entity.NewWalletClientConfig(chains, connectors, storageKey), subs
}

func resolveChain(spec entity.ChainSpec, override string) (entity.ChainDescriptor, *Substitution) {
	desc := entity.ChainDescriptor{
		ID:           spec.ID,
		Name:         spec.Name,
		ShortName:    spec.ShortName,
		Network:      spec.Network,
		Currency:     spec.Currency,
		RPC:          spec.FallbackRPC,
		UsesFallback: true,
		ExplorerURL:  spec.ExplorerURL,
	}
	field := fmt.Sprintf("rpc.%s", spec.EnvKey)

	if strings.TrimSpace(override) == "" {
		return desc, &Substitution{Field: field, Fallback: spec.FallbackRPC.String(), Reason: "no override set"}
	}

	rpcURL, err := entity.NewRPCURL(override)
	if err != nil {
		return desc, &Substitution{Field: field, Fallback: spec.FallbackRPC.String(), Reason: err.Error()}
	}

	desc.RPC = rpcURL
	desc.UsesFallback = false
	return desc, nil
}

func resolveConnectors(env Env) ([]entity.ConnectorDescriptor, []Substitution) {
	var subs []Substitution

	appName := strings.TrimSpace(env.AppName)
	if appName == "" {
		appName = DefaultAppName
	}

	connectors := []entity.ConnectorDescriptor{
		{
			ID:   InjectedConnectorID,
			Kind: entity.ConnectorInjected,
			Name: "Injected",
		},
		{
			ID:      BrandedAppConnectorID,
			Kind:    entity.ConnectorBrandedApp,
			Name:    "Coinbase Wallet",
			AppName: appName,
		},
	}

	walletLink := entity.ConnectorDescriptor{
		ID:         WalletLinkConnectorID,
		Kind:       entity.ConnectorWalletLink,
		Name:       "WalletConnect",
		ProjectID:  strings.TrimSpace(env.ProjectID),
		ShowPrompt: env.ShowQRModal,
	}
	if walletLink.ProjectID == "" {
		if env.OmitUnconfigured {
			subs = append(subs, Substitution{
				Field: "project_id", Fallback: "", Reason: "no project id set, connector omitted",
			})
			return connectors, subs
		}
		walletLink.ProjectID = PlaceholderProjectID
		walletLink.Placeholder = true
		subs = append(subs, Substitution{
			Field: "project_id", Fallback: PlaceholderProjectID, Reason: "no project id set, connector is not functional",
		})
	}

	return append(connectors, walletLink), subs
}
