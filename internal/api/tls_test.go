// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTLSConfig(t *testing.T) {
	// Neither set: plain HTTP.
	enabled, err := CheckTLSConfig("", "")
	require.NoError(t, err)
	assert.False(t, enabled)

	// A lone cert or key is a misconfiguration.
	_, err = CheckTLSConfig("cert.pem", "")
	assert.Error(t, err)
	_, err = CheckTLSConfig("", "key.pem")
	assert.Error(t, err)

	// Both set but missing on disk.
	dir := t.TempDir()
	_, err = CheckTLSConfig(filepath.Join(dir, "cert.pem"), filepath.Join(dir, "key.pem"))
	assert.Error(t, err)

	// Both present.
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(cert, []byte("cert"), 0o600))
	require.NoError(t, os.WriteFile(key, []byte("key"), 0o600))
	enabled, err = CheckTLSConfig(cert, key)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".kaleido/cert.pem"), expandPath("~/.kaleido/cert.pem"))
	assert.Equal(t, "/etc/kaleido/cert.pem", expandPath("/etc/kaleido/cert.pem"))
}
