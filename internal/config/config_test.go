package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/winnyboy5/mediagit-core-sub002/internal/codec"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	require.Equal(t, "zstd", cfg.Storage.Compression)
	require.Equal(t, codec.Zstd, cfg.Storage.Algorithm())
}

func TestLoadParsesFileAndOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[core]
bare = true

[user]
name = "Ada Lovelace"
email = "ada@example.com"

[storage]
compression = "brotli"
compression_level = 7
cache_size = "128m"
delta_min_score = 0.5

[remote.origin]
url = "https://example.com/repo.mediagit"
fetch = "+refs/heads/*:refs/remotes/origin/*"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Core.Bare.Value(false))
	require.Equal(t, "Ada Lovelace", cfg.User.Name)
	require.Equal(t, codec.Brotli, cfg.Storage.Algorithm())
	require.Equal(t, 7, cfg.Storage.CompressionLevel)
	require.Equal(t, int64(128*mib), cfg.Storage.CacheSize.Bytes)
	require.Equal(t, 0.5, cfg.Storage.DeltaMinScore)
	require.Equal(t, "https://example.com/repo.mediagit", cfg.Remote["origin"].URL)
}

func TestBooleanUnsetFallsBackToDefault(t *testing.T) {
	var b Boolean
	require.True(t, b.IsUnset())
	require.Equal(t, true, b.Value(true))
	require.Equal(t, false, b.Value(false))
}

func TestSizeUnmarshalTextSuffixes(t *testing.T) {
	cases := map[string]int64{
		"512":  512,
		"512b": 512,
		"64k":  64 * kib,
		"4m":   4 * mib,
		"2g":   2 * gib,
	}
	for input, want := range cases {
		var s Size
		require.NoError(t, s.UnmarshalText([]byte(input)), input)
		require.Equal(t, want, s.Bytes, input)
	}
}

func TestSizeUnmarshalTextRejectsGarbage(t *testing.T) {
	var s Size
	require.Error(t, s.UnmarshalText([]byte("")))
	require.Error(t, s.UnmarshalText([]byte("notanumber")))
}

func TestStringArrayAcceptsScalarOrList(t *testing.T) {
	var a StringArray
	require.NoError(t, a.UnmarshalTOML("solo"))
	require.Equal(t, StringArray{"solo"}, a)

	var b StringArray
	require.NoError(t, b.UnmarshalTOML([]any{"x", "y"}))
	require.Equal(t, StringArray{"x", "y"}, b)
}
