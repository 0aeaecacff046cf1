// Package credfile loads API key and proxy lists from flat files:
// one entry per line, blank lines and #-prefixed comments skipped.
package credfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadKeys reads the account credential list. A missing file is an error;
// the fleet cannot run without keys.
func LoadKeys(path string) ([]string, error) {
	keys, err := loadLines(path)
	if err != nil {
		return nil, fmt.Errorf("load api keys: %w", err)
	}

	return keys, nil
}

// LoadProxies reads the proxy list. A missing file is not an error; the
// fleet runs unproxied without one.
func LoadProxies(path string) ([]string, error) {
	proxies, err := loadLines(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("load proxies: %w", err)
	}

	return proxies, nil
}

func loadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return parseLines(file)
}

func parseLines(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lines: %w", err)
	}

	return lines, nil
}
