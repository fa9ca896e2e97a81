package core

import (
	"fmt"
	"os"
	"path/filepath"

	netrc "github.com/bgentry/go-netrc/netrc"
)

const netrcFileName = ".netrc"

// DefaultNetrcPath returns the per-user credential file, $HOME/.netrc.
func DefaultNetrcPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, netrcFileName), nil
}

type Credentials interface {
	// Lookup returns the login for host, falling back to the "default" entry.
	Lookup(host string) (login, password string, ok bool)
}

type netrcCredentials struct {
	netrc *netrc.Netrc
}

func LoadNetrc(path string) (Credentials, error) {
	n, err := netrc.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %s: %w", path, err)
	}
	return &netrcCredentials{netrc: n}, nil
}

func (c *netrcCredentials) Lookup(host string) (string, string, bool) {
	m := c.netrc.FindMachine(host)
	if m == nil {
		return "", "", false
	}
	return m.Login, m.Password, true
}
