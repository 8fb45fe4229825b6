package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "C-b", cfg.Prefix)
	assert.Equal(t, 1000, cfg.Scrollback)
	assert.NotEmpty(t, cfg.Shell)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"prefix: C-a\nscrollback: 500\nshell: /bin/zsh\nbindings:\n  \"|\": split-vertical\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "C-a", cfg.Prefix)
	assert.Equal(t, 500, cfg.Scrollback)
	assert.Equal(t, "/bin/zsh", cfg.Shell)
	assert.Equal(t, "split-vertical", cfg.Bindings["|"])
	// Unspecified keys keep their defaults.
	assert.Equal(t, 12, cfg.Palette.BorderActive)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prefix: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestPrefixByte(t *testing.T) {
	tests := []struct {
		prefix string
		want   byte
	}{
		{"C-b", 0x02},
		{"C-a", 0x01},
		{"C-Z", 0x1a},
		{"`", '`'},
		{"garbage", 0x02},
		{"", 0x02},
	}
	for _, tt := range tests {
		cfg := &Config{Prefix: tt.prefix}
		assert.Equal(t, tt.want, cfg.PrefixByte(), "prefix %q", tt.prefix)
	}
}

func TestEndpointOverride(t *testing.T) {
	cfg := &Config{Socket: "127.0.0.1:9000"}
	network, addr := cfg.Endpoint()
	assert.Equal(t, "tcp", network)
	assert.Equal(t, "127.0.0.1:9000", addr)

	cfg = &Config{Socket: "/tmp/mux.sock"}
	network, addr = cfg.Endpoint()
	assert.Equal(t, "unix", network)
	assert.Equal(t, "/tmp/mux.sock", addr)
}

func TestWatchPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prefix: C-b\n"), 0o644))

	changed := make(chan *Config, 1)
	stop, err := Watch(path, func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte("prefix: C-a\n"), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, "C-a", cfg.Prefix)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
}
