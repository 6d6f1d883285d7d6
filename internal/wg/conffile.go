package wg

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// fileFields are the pieces of a tunnel definition the kernel does not
// report: they only exist in the wg-quick conf file.
type fileFields struct {
	Address      string
	DNS          string
	Keepalive    string
	PresharedKey string
}

// readFileFields scans the tunnel's conf file across the candidate
// directories, in order, and extracts the wg-quick-only keys. Missing
// files are skipped; a tunnel with no conf file yields zero values.
func readFileFields(dirs []string, name string) fileFields {
	var f fileFields

	for _, dir := range dirs {
		path := filepath.Join(dir, name+".conf")
		file, err := os.Open(path)
		if err != nil {
			continue
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			switch {
			case strings.HasPrefix(line, "Address = "):
				f.Address = strings.TrimPrefix(line, "Address = ")
			case strings.HasPrefix(line, "DNS = "):
				f.DNS = strings.TrimPrefix(line, "DNS = ")
			case strings.HasPrefix(line, "PersistentKeepalive = "):
				f.Keepalive = strings.TrimPrefix(line, "PersistentKeepalive = ")
			case strings.HasPrefix(line, "PresharedKey = "):
				f.PresharedKey = strings.TrimPrefix(line, "PresharedKey = ")
			}
		}
		file.Close()
	}

	return f
}

// readFileKeys derives the interface and peer public keys of an inactive
// tunnel from its conf file. The interface public key is computed from the
// stored PrivateKey; the peer public key is taken verbatim. Both strings
// are empty when the file is missing or the private key does not parse.
func readFileKeys(dirs []string, name string) (interfacePubKey, peerPubKey string) {
	var privKey, pubKey string

	for _, dir := range dirs {
		path := filepath.Join(dir, name+".conf")
		file, err := os.Open(path)
		if err != nil {
			continue
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			switch {
			case strings.HasPrefix(line, "PrivateKey = "):
				privKey = strings.TrimPrefix(line, "PrivateKey = ")
			case strings.HasPrefix(line, "PublicKey = "):
				pubKey = strings.TrimPrefix(line, "PublicKey = ")
			}
		}
		file.Close()
	}

	if privKey == "" || pubKey == "" {
		return "", ""
	}

	key, err := wgtypes.ParseKey(privKey)
	if err != nil {
		return "", ""
	}

	return key.PublicKey().String(), pubKey
}
