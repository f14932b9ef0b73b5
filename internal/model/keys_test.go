package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateKeyCreatesAndReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key.json")

	key1, err := LoadOrGenerateKey(path)
	require.NoError(t, err)

	key2, err := LoadOrGenerateKey(path)
	require.NoError(t, err)

	require.True(t, key1.Public.Equal(key2.Public))
	require.Equal(t, key1.Private, key2.Private)
}

func TestLoadOrGenerateKeyRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := LoadOrGenerateKey(path)
	require.Error(t, err)
}
