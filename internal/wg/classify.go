package wg

import "strings"

// ClassifyControlError translates cryptic control-plane errors into
// actionable hints for the doctor report and error logs.
func ClassifyControlError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "operation not permitted"):
		return "missing CAP_NET_ADMIN — run as root or grant the capability"
	case strings.Contains(msg, "permission denied"):
		return "permission denied — wg-quick and wgctrl require elevated privileges"
	case strings.Contains(msg, "no such device"):
		return "wireguard kernel module not loaded — run 'modprobe wireguard'"
	case strings.Contains(msg, "no such file or directory"):
		return "wireguard kernel module not loaded or kernel older than 5.6"
	case strings.Contains(msg, "address already in use"):
		return "listen port already bound — check with 'ss -ulnp'"
	case strings.Contains(msg, "executable file not found"):
		return "wg-quick not on PATH — install wireguard-tools"
	case strings.Contains(msg, "signal: killed"), strings.Contains(msg, "context deadline exceeded"):
		return "command timed out — a hung resolvconf or firewall hook is the usual cause"
	default:
		return ""
	}
}
