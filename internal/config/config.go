package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teemow/mailreader/internal/attachments"
	"github.com/teemow/mailreader/internal/envelope"
)

// Environment variables read in addition to the config file.
const (
	EnvStoreRoot      = "MAIL_STORE_ROOT"
	EnvIndexPath      = "MAIL_INDEX_PATH"
	EnvAttachmentPath = "MAIL_ATTACHMENT_PATH"
	EnvSearchTimeout  = "MAIL_SEARCH_TIMEOUT"
)

// Flag names bound to config keys when present on the flag set.
const (
	FlagConfig         = "config"
	FlagStoreRoot      = "store-root"
	FlagIndexPath      = "index-path"
	FlagAttachmentPath = "attachment-path"
	FlagSearchTimeout  = "search-timeout"
)

// StoreConfig locates the mail store and its index.
type StoreConfig struct {
	// Root is the versioned store directory, e.g. ~/Library/Mail/V10.
	Root string `mapstructure:"root"`
	// Index is the Envelope Index database. Defaults to <Root>/MailData/Envelope Index.
	Index         string        `mapstructure:"index"`
	Schemes       []string      `mapstructure:"schemes"`
	SearchTimeout time.Duration `mapstructure:"search_timeout"`
}

// AttachmentsConfig controls attachment extraction.
type AttachmentsConfig struct {
	// BasePath is the parent of the attachments working directory.
	BasePath      string `mapstructure:"base_path"`
	// MinInlineSize of 0 turns off the Attachments directory fallback.
	MinInlineSize int    `mapstructure:"min_inline_size"`
}

// Config is the top-level application configuration.
type Config struct {
	Store       StoreConfig       `mapstructure:"store"`
	Attachments AttachmentsConfig `mapstructure:"attachments"`
}

// DefaultConfigPath returns ~/.config/mailreader/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailreader", "config.yaml")
}

// DefaultStoreRoot returns ~/Library/Mail/V10.
func DefaultStoreRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("Library", "Mail", "V10")
	}
	return filepath.Join(home, "Library", "Mail", "V10")
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Root:          DefaultStoreRoot(),
			Schemes:       append([]string(nil), envelope.DefaultSchemes...),
			SearchTimeout: envelope.DefaultSearchTimeout,
		},
		Attachments: AttachmentsConfig{
			BasePath:      "/tmp",
			MinInlineSize: attachments.DefaultMinInlineSize,
		},
	}
}

// Load merges defaults, the YAML config file at path, the environment and
// any bound flags, in increasing order of precedence. An empty path uses
// DefaultConfigPath. A missing config file is not an error.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("store.root", def.Store.Root)
	v.SetDefault("store.index", "")
	v.SetDefault("store.schemes", def.Store.Schemes)
	v.SetDefault("store.search_timeout", def.Store.SearchTimeout)
	v.SetDefault("attachments.base_path", def.Attachments.BasePath)
	v.SetDefault("attachments.min_inline_size", def.Attachments.MinInlineSize)

	for key, env := range map[string]string{
		"store.root":            EnvStoreRoot,
		"store.index":           EnvIndexPath,
		"store.search_timeout":  EnvSearchTimeout,
		"attachments.base_path": EnvAttachmentPath,
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if flags != nil {
		for key, name := range map[string]string{
			"store.root":            FlagStoreRoot,
			"store.index":           FlagIndexPath,
			"store.search_timeout":  FlagSearchTimeout,
			"attachments.base_path": FlagAttachmentPath,
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	if path == "" {
		path = DefaultConfigPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Store.Root = expandHome(c.Store.Root)
	c.Store.Index = expandHome(c.Store.Index)
	c.Attachments.BasePath = expandHome(c.Attachments.BasePath)
	if c.Store.Index == "" {
		c.Store.Index = filepath.Join(c.Store.Root, "MailData", "Envelope Index")
	}
	if len(c.Store.Schemes) == 0 {
		c.Store.Schemes = append([]string(nil), envelope.DefaultSchemes...)
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Store.Root == "" {
		return fmt.Errorf("store.root must not be empty")
	}
	if c.Store.SearchTimeout <= 0 {
		return fmt.Errorf("store.search_timeout must be positive, got %s", c.Store.SearchTimeout)
	}
	if c.Attachments.BasePath == "" {
		return fmt.Errorf("attachments.base_path must not be empty")
	}
	if c.Attachments.MinInlineSize < 0 {
		return fmt.Errorf("attachments.min_inline_size must not be negative, got %d", c.Attachments.MinInlineSize)
	}
	return nil
}

// AttachmentDir returns the directory that holds the per-message working
// directories.
func (c *Config) AttachmentDir() string {
	return filepath.Join(c.Attachments.BasePath, attachments.DirName)
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
