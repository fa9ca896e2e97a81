package core

import (
	"bufio"
	"io"
	"strings"

	"github.com/abema/probe/internal/file"
)

const maxEndpointLength = 1 << 20

// ParseEndpoints returns the endpoints of r in order.
// Lines are trimmed; blank lines and lines starting with '#' are skipped.
func ParseEndpoints(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxEndpointLength)
	endpoints := make([]string, 0)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		endpoints = append(endpoints, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return endpoints, nil
}

func LoadEndpoints(name string) ([]string, error) {
	f, err := file.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseEndpoints(f)
}
