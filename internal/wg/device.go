//go:build linux

package wg

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.zx2c4.com/wireguard/wgctrl"
)

// wgctrlBridge implements Bridge on top of wgctrl. A short-lived client is
// opened per read and closed on every exit path, so kernel resources never
// outlive the call that acquired them.
type wgctrlBridge struct {
	dirs   []string
	logger *slog.Logger
}

// NewBridge creates a Bridge backed by wgctrl, reading conf-file fields
// from the given candidate directories. It fails when the WireGuard
// control plane is unreachable; that failure is fatal for the process,
// there is no degraded mode without it.
func NewBridge(dirs []string, logger *slog.Logger) (Bridge, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("new bridge: at least one config directory is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("new bridge: logger is required")
	}

	// Probe once so an unusable control plane is caught at startup
	// instead of surfacing as empty reads later.
	client, err := wgctrl.New()
	if err != nil {
		return nil, fmt.Errorf("new bridge: open wgctrl client: %w", err)
	}
	client.Close()

	return &wgctrlBridge{
		dirs:   dirs,
		logger: logger.With("component", "wg"),
	}, nil
}

func (b *wgctrlBridge) GenerateKeyPair() (string, string, error) {
	return GenerateKeyPair()
}

func (b *wgctrlBridge) InterfaceNames() []string {
	return ListConfigNames(b.dirs)
}

func (b *wgctrlBridge) ReadConfig(name string) *InterfaceConfig {
	client, err := wgctrl.New()
	if err != nil {
		b.logger.Warn("wgctrl_open_failed",
			"error", err,
			"operation", "read_config",
			"interface", name,
		)
		return nil
	}
	defer client.Close()

	device, err := client.Device(name)
	if err != nil {
		// Not running as a kernel device: fall back to the conf file
		// alone so an inactive tunnel still shows its keys.
		interfacePubKey, peerPubKey := readFileKeys(b.dirs, name)
		if interfacePubKey == "" && peerPubKey == "" {
			return nil
		}
		fields := readFileFields(b.dirs, name)
		return &InterfaceConfig{
			PublicKey:        interfacePubKey,
			PeerPublicKey:    peerPubKey,
			Address:          fields.Address,
			DNS:              fields.DNS,
			PeerKeepalive:    fields.Keepalive,
			PeerPresharedKey: fields.PresharedKey,
		}
	}

	if len(device.Peers) == 0 {
		return nil
	}

	fields := readFileFields(b.dirs, name)
	peer := device.Peers[0]

	ips := make([]string, 0, len(peer.AllowedIPs))
	for _, ipNet := range peer.AllowedIPs {
		ips = append(ips, ipNet.String())
	}

	cfg := &InterfaceConfig{
		PrivateKey:       device.PrivateKey.String(),
		PublicKey:        device.PublicKey.String(),
		ListenPort:       device.ListenPort,
		Address:          fields.Address,
		DNS:              fields.DNS,
		PeerPublicKey:    peer.PublicKey.String(),
		PeerAllowedIPs:   strings.Join(ips, ","),
		PeerKeepalive:    fields.Keepalive,
		PeerPresharedKey: fields.PresharedKey,
	}
	if peer.Endpoint != nil {
		cfg.PeerEndpoint = peer.Endpoint.String()
	}
	return cfg
}

func (b *wgctrlBridge) ReadStats(name string) *TunnelStats {
	client, err := wgctrl.New()
	if err != nil {
		b.logger.Warn("wgctrl_open_failed",
			"error", err,
			"operation", "read_stats",
			"interface", name,
		)
		return nil
	}
	defer client.Close()

	device, err := client.Device(name)
	if err != nil {
		return nil
	}
	if len(device.Peers) == 0 {
		return nil
	}

	peer := device.Peers[0]
	return &TunnelStats{
		LastHandshake: FormatHandshake(peer.LastHandshakeTime),
		Transfer:      FormatTransfer(peer.ReceiveBytes, peer.TransmitBytes),
	}
}

func (b *wgctrlBridge) Close() error {
	return nil
}
