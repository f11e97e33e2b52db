package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Config represents the main configuration for jasper.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	LogLevel   string           `toml:"log_level"` // debug, info, warn, error
	Database   DatabaseConfig   `toml:"database"`
	Hash       HashConfig       `toml:"hash"`
	Transport  TransportConfig  `toml:"transport"`
	Fetch      FetchConfig      `toml:"fetch"`
	Archive    ArchiveConfig    `toml:"archive"`
	Export     ExportConfig     `toml:"export"`
	Encryption EncryptionConfig `toml:"encryption"`
	Server     ServerConfig     `toml:"server"`
}

// DatabaseConfig represents configuration for the resource store.
type DatabaseConfig struct {
	Type string `toml:"type"`           // "sqlite" or "memory"
	Path string `toml:"path,omitempty"` // only used for type=sqlite
}

// HashConfig selects the content digest algorithm.
type HashConfig struct {
	Algorithm string `toml:"algorithm"` // "sha256" or "blake3"
}

// TransportConfig represents configuration for the archival transport.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type TransportConfig struct {
	Type string `toml:"type"` // "memory", "filesystem", or "s3"
	Name string `toml:"name"`

	// Gateway is prefixed to addresses to build retrieval links.
	Gateway string `toml:"gateway,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"`
}

// FetchConfig controls retrieval of external resources.
type FetchConfig struct {
	UserAgent         string   `toml:"user_agent"`
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
	MaxBodyBytes      int64    `toml:"max_body_bytes"`
}

// ArchiveConfig controls how resources are packaged and tagged for archival.
type ArchiveConfig struct {
	PackageExternal bool              `toml:"package_external"`
	AppName         string            `toml:"app_name"`
	CostPerKiB      float64           `toml:"cost_per_kib"`
	DefaultTags     map[string]string `toml:"default_tags,omitempty"`
}

// ExportConfig controls where and how exports are written.
type ExportConfig struct {
	Dir         string `toml:"dir"`
	Compression string `toml:"compression"` // "none", "zstd", or "lz4"
	Encrypt     bool   `toml:"encrypt"`
}

// EncryptionConfig holds paths to the age key pair used for encrypted exports.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// ServerConfig holds the listen address for `jasper serve`.
type ServerConfig struct {
	Address string `toml:"address"`
}

// Duration is a time.Duration written as a string ("30s") in TOML.
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

// NewConfig creates a new Config rooted at baseDir with default settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "info",
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: filepath.Join(baseDir, "jasper.db"),
		},
		Hash: HashConfig{Algorithm: "sha256"},
		Transport: TransportConfig{
			Type:   "filesystem",
			Name:   "local",
			FSRoot: filepath.Join(baseDir, "archive"),
		},
		Fetch: FetchConfig{
			UserAgent:         "jasper/1.0",
			Timeout:           Duration{30 * time.Second},
			RequestsPerSecond: 2,
			Burst:             4,
			MaxBodyBytes:      50 << 20,
		},
		Archive: ArchiveConfig{
			PackageExternal: true,
			AppName:         "jasper",
			CostPerKiB:      0.000001,
		},
		Export: ExportConfig{
			Dir:         filepath.Join(baseDir, "exports"),
			Compression: "none",
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "jasper.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "jasper.key"),
		},
		Server: ServerConfig{Address: "127.0.0.1:8420"},
	}
}

// Validate checks every section, reporting the first invalid one.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.BaseDir, validation.Required),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
	if err != nil {
		return err
	}
	sections := []struct {
		name string
		v    validation.Validatable
	}{
		{"database", &c.Database},
		{"hash", &c.Hash},
		{"transport", &c.Transport},
		{"fetch", &c.Fetch},
		{"archive", &c.Archive},
		{"export", &c.Export},
		{"encryption", &c.Encryption},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.Required, validation.In("sqlite", "memory")),
		validation.Field(&c.Path, validation.When(c.Type == "sqlite", validation.Required)),
	)
}

func (c *HashConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Algorithm, validation.In("sha256", "blake3")),
	)
}

func (c *TransportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.Required, validation.In("memory", "filesystem", "s3")),
		validation.Field(&c.FSRoot, validation.When(c.Type == "filesystem", validation.Required)),
		validation.Field(&c.S3Bucket, validation.When(c.Type == "s3", validation.Required)),
		validation.Field(&c.S3Endpoint, is.URL),
		validation.Field(&c.Gateway, is.URL),
	)
}

func (c *FetchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RequestsPerSecond, validation.Min(0.0)),
		validation.Field(&c.Burst, validation.Min(0)),
		validation.Field(&c.MaxBodyBytes, validation.Min(int64(0))),
	)
}

func (c *ArchiveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CostPerKiB, validation.Min(0.0)),
	)
}

func (c *ExportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Compression, validation.In("", "none", "zstd", "lz4")),
	)
}

func (c *EncryptionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.In("", "age", "test")),
	)
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
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

	f, err := os.Create(path)
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

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
