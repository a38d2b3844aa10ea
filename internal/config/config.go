package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for arc.
type Config struct {
	InstanceID string         `toml:"instance_id"`
	BaseDir    string         `toml:"base_dir"`
	LogDir     string         `toml:"log_dir"`
	LogLevel   string         `toml:"log_level"` // debug, info, warn or error
	Archive    ArchiveConfig  `toml:"archive"`
	Database   DatabaseConfig `toml:"database"`
	Server     ServerConfig   `toml:"server"`
	Vaults     []VaultConfig  `toml:"vaults"`
	Import     ImportConfig   `toml:"import"`
}

// ArchiveConfig tunes the file store.
type ArchiveConfig struct {
	MaxPayloadSize int64  `toml:"max_payload_size"` // bytes; 0 selects the 100MB default
	DefaultAuthor  string `toml:"default_author"`

	// Download cache; DownloadCacheEntries 0 disables it.
	DownloadCacheEntries  int      `toml:"download_cache_entries"`
	DownloadCacheMaxBytes int64    `toml:"download_cache_max_bytes"`
	DownloadCacheTTL      Duration `toml:"download_cache_ttl"`
}

// DatabaseConfig represents configuration for the archive database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// ServerConfig holds HTTP listener settings for `arc serve`.
type ServerConfig struct {
	Addr              string   `toml:"addr"`
	ReadTimeout       Duration `toml:"read_timeout"`
	WriteTimeout      Duration `toml:"write_timeout"`
	IdleTimeout       Duration `toml:"idle_timeout"`
	ShutdownTimeout   Duration `toml:"shutdown_timeout"`
	SanitizeFilenames bool     `toml:"sanitize_filenames"`
}

// VaultConfig represents configuration for a snapshot vault backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3Endpoint  string `toml:"s3_endpoint,omitempty"`   // S3-compatible stores such as MinIO
	S3AccessKey string `toml:"s3_access_key,omitempty"` // empty uses the default credential chain
	S3SecretKey string `toml:"s3_secret_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// ImportConfig holds settings for `arc import`.
type ImportConfig struct {
	Ignore []string `toml:"ignore"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// DefaultServerConfig returns the listener settings written by `arc config init`.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              "127.0.0.1:3000",
		ReadTimeout:       Duration{30 * time.Second},
		WriteTimeout:      Duration{60 * time.Second},
		IdleTimeout:       Duration{2 * time.Minute},
		ShutdownTimeout:   Duration{10 * time.Second},
		SanitizeFilenames: true,
	}
}

// fillDefaults sets the fields that have no usable zero value.
// A zero shutdown timeout would drop in-flight requests on stop.
func (s *ServerConfig) fillDefaults() {
	def := DefaultServerConfig()
	if s.Addr == "" {
		s.Addr = def.Addr
	}
	if s.ShutdownTimeout.Duration <= 0 {
		s.ShutdownTimeout = def.ShutdownTimeout
	}
}

// NewConfig creates a new Config with the provided values and defaults for
// everything else.
func NewConfig(instanceID, baseDir string) *Config {
	return &Config{
		InstanceID: instanceID,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
		LogLevel:   "info",
		Archive: ArchiveConfig{
			MaxPayloadSize:        100 * 1024 * 1024,
			DefaultAuthor:         "guest",
			DownloadCacheEntries:  128,
			DownloadCacheMaxBytes: 4 * 1024 * 1024,
			DownloadCacheTTL:      Duration{5 * time.Minute},
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Server: DefaultServerConfig(),
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: filepath.Join(baseDir, "vault")},
		},
		Import: ImportConfig{
			Ignore: []string{".git", ".DS_Store", "*.tmp"},
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Server.fillDefaults()
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: the file may carry S3 credentials.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
