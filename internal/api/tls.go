// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CheckTLSConfig reports whether the server should terminate TLS itself.
// TLS is opt-in: with neither server.tls_cert nor server.tls_key set the
// server stays on plain HTTP, which suits the usual localhost deployment
// next to the studio. Setting only one of the pair is a configuration error,
// as is a path that does not resolve to a readable file.
func CheckTLSConfig(certPath, keyPath string) (bool, error) {
	if certPath == "" && keyPath == "" {
		return false, nil
	}
	if certPath == "" || keyPath == "" {
		return false, fmt.Errorf("both tls_cert and tls_key must be specified (got cert=%q, key=%q)", certPath, keyPath)
	}

	for _, path := range []string{expandPath(certPath), expandPath(keyPath)} {
		if _, err := os.Stat(path); err != nil {
			return false, fmt.Errorf("TLS file not found: %s", path)
		}
	}
	return true, nil
}

// expandPath resolves a leading ~ against the current user's home directory,
// so config files can use ~/.kaleido/cert.pem style paths.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
