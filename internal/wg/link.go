//go:build linux

package wg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vishvananda/netlink"
)

// LinkExists reports whether a network interface with the given name is
// present on the host, via netlink.
func (b *wgctrlBridge) LinkExists(name string) (bool, error) {
	_, err := netlink.LinkByName(name)
	if err == nil {
		return true, nil
	}

	var lnfe netlink.LinkNotFoundError
	if errors.As(err, &lnfe) {
		return false, nil
	}
	if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "no such device") {
		return false, nil
	}

	return false, fmt.Errorf("check link %s: %w", name, err)
}
