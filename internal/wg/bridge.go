package wg

// InterfaceConfig is an immutable snapshot of one tunnel's parsed definition.
// It is constructed fresh on every read and never mutated in place. A nil
// *InterfaceConfig means the tunnel is absent or unreadable, which callers
// must treat as "no data", not as a hard failure.
type InterfaceConfig struct {
	PrivateKey string
	PublicKey  string
	ListenPort int
	Address    string
	DNS        string

	PeerPublicKey    string
	PeerEndpoint     string
	PeerAllowedIPs   string
	PeerKeepalive    string
	PeerPresharedKey string
}

// Active reports whether the tunnel is currently bound to a listening port.
// The listen port is the sole authoritative signal of "active": it is derived
// from live kernel state on every read, never cached.
func (c *InterfaceConfig) Active() bool {
	return c != nil && c.ListenPort != 0
}

// TunnelStats is an immutable snapshot of a tunnel's live peer statistics,
// pre-formatted for display. Re-fetched on every poll; nil means absent.
type TunnelStats struct {
	LastHandshake string
	Transfer      string
}

// Bridge is the boundary to the WireGuard control plane. The real
// implementation talks to the kernel through wgctrl; tests substitute
// a mock. All read operations degrade to empty/nil results instead of
// returning errors so a caller's view stays navigable when a single
// tunnel is corrupt or gone.
type Bridge interface {
	// GenerateKeyPair returns a new base64 private/public key pair.
	// On failure both strings are empty; an empty pair is never a
	// valid result.
	GenerateKeyPair() (privateKey, publicKey string, err error)

	// InterfaceNames returns the names of all configured tunnels, in
	// config-directory order. Never returns an error: no configured
	// tunnels yields an empty slice.
	InterfaceNames() []string

	// ReadConfig returns the parsed definition of one tunnel, or nil
	// when the tunnel is absent or unreadable.
	ReadConfig(name string) *InterfaceConfig

	// ReadStats returns live handshake/transfer statistics for one
	// tunnel, or nil when the tunnel is absent or has no peer.
	ReadStats(name string) *TunnelStats

	// LinkExists reports whether a network interface with the given
	// name is present on the host.
	LinkExists(name string) (bool, error)

	// Close releases control-plane resources.
	Close() error
}
