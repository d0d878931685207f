package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.yaml")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvStoreRoot, "")
	t.Setenv(EnvIndexPath, "")
	t.Setenv(EnvAttachmentPath, "")
	t.Setenv(EnvSearchTimeout, "")
	os.Unsetenv(EnvStoreRoot)
	os.Unsetenv(EnvIndexPath)
	os.Unsetenv(EnvAttachmentPath)
	os.Unsetenv(EnvSearchTimeout)

	cfg, err := Load(missingConfig(t), nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultStoreRoot(), cfg.Store.Root)
	assert.Equal(t, filepath.Join(DefaultStoreRoot(), "MailData", "Envelope Index"), cfg.Store.Index)
	assert.Equal(t, []string{"imap"}, cfg.Store.Schemes)
	assert.Equal(t, 10*time.Second, cfg.Store.SearchTimeout)
	assert.Equal(t, "/tmp", cfg.Attachments.BasePath)
	assert.Equal(t, 100, cfg.Attachments.MinInlineSize)
	assert.Equal(t, "/tmp/mail-mcp-attachments", cfg.AttachmentDir())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv(EnvStoreRoot, "/srv/mail")
	t.Setenv(EnvAttachmentPath, "/var/tmp")
	t.Setenv(EnvSearchTimeout, "3s")
	t.Setenv(EnvIndexPath, "")

	cfg, err := Load(missingConfig(t), nil)
	require.NoError(t, err)

	assert.Equal(t, "/srv/mail", cfg.Store.Root)
	assert.Equal(t, "/srv/mail/MailData/Envelope Index", cfg.Store.Index)
	assert.Equal(t, 3*time.Second, cfg.Store.SearchTimeout)
	assert.Equal(t, "/var/tmp/mail-mcp-attachments", cfg.AttachmentDir())
}

func TestLoad_File(t *testing.T) {
	t.Setenv(EnvStoreRoot, "")
	os.Unsetenv(EnvStoreRoot)
	t.Setenv(EnvAttachmentPath, "")
	os.Unsetenv(EnvAttachmentPath)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  root: /data/Mail/V10
  index: /data/index.sqlite
  schemes: [imap, ews]
  search_timeout: 2s
attachments:
  base_path: /scratch
  min_inline_size: 10
`), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "/data/Mail/V10", cfg.Store.Root)
	assert.Equal(t, "/data/index.sqlite", cfg.Store.Index)
	assert.Equal(t, []string{"imap", "ews"}, cfg.Store.Schemes)
	assert.Equal(t, 2*time.Second, cfg.Store.SearchTimeout)
	assert.Equal(t, "/scratch", cfg.Attachments.BasePath)
	assert.Equal(t, 10, cfg.Attachments.MinInlineSize)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv(EnvStoreRoot, "/from/env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(FlagStoreRoot, "", "")
	flags.String(FlagAttachmentPath, "", "")
	require.NoError(t, flags.Parse([]string{"--" + FlagStoreRoot, "/from/flag"}))

	cfg, err := Load(missingConfig(t), flags)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.Store.Root)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0o644))

	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty root", func(c *Config) { c.Store.Root = "" }, true},
		{"zero timeout", func(c *Config) { c.Store.SearchTimeout = 0 }, true},
		{"empty attachment path", func(c *Config) { c.Attachments.BasePath = "" }, true},
		{"zero inline size disables fallback", func(c *Config) { c.Attachments.MinInlineSize = 0 }, false},
		{"negative inline size", func(c *Config) { c.Attachments.MinInlineSize = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "Mail"), expandHome("~/Mail"))
	assert.Equal(t, home, expandHome("~"))
	assert.Equal(t, "/abs", expandHome("/abs"))
	assert.Equal(t, "~user/x", expandHome("~user/x"))
}
