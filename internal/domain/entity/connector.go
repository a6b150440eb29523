package entity

// ConnectorKind identifies the strategy a connector uses to reach a wallet.
type ConnectorKind string

const (
	// ConnectorInjected talks to a wallet injected into the browser.
	ConnectorInjected ConnectorKind = "injected"
	// ConnectorBrandedApp opens a branded in-app wallet under a fixed display name.
	ConnectorBrandedApp ConnectorKind = "brandedApp"
	// ConnectorWalletLink pairs with a wallet through a relay, keyed by a project id.
	ConnectorWalletLink ConnectorKind = "walletLink"
)

// ConnectorDescriptor describes one wallet connection strategy offered to the UI.
type ConnectorDescriptor struct {
	ID         string        `json:"id"`
	Kind       ConnectorKind `json:"kind"`
	Name       string        `json:"name"`
	AppName    string        `json:"appName,omitempty"`
	ProjectID  string        `json:"-"`
	ShowPrompt bool          `json:"showPrompt,omitempty"`
	// Placeholder is set when a required credential was missing and a placeholder was
	// substituted. The connector is listed but cannot complete a connection.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Functional reports whether the connector has every credential it needs.
func (c ConnectorDescriptor) Functional() bool {
	return !c.Placeholder
}
