package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/sliderbind/internal/errors"
	"github.com/vango-dev/sliderbind/pkg/server"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ConfigFileNames are looked for in this order.
var ConfigFileNames = []string{"sliderbind.json", "sliderbind.yaml", "sliderbind.yml"}

const (
	// DefaultFileName is written by `sliderbind init`.
	DefaultFileName = "sliderbind.yaml"

	DefaultAddress   = ":8080"
	DefaultPage      = "demo"
	DefaultNamespace = "sliderbind"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Snapshot store kinds.
const (
	SnapshotNone   = ""
	SnapshotMemory = "memory"
	SnapshotDisk   = "disk"
	SnapshotS3     = "s3"
)

// Config is the contents of a sliderbind config file.
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Snapshot SnapshotConfig `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`

	configPath string
}

// ServerConfig mirrors the file-settable fields of server.Config.
type ServerConfig struct {
	Address           string   `json:"address,omitempty" yaml:"address,omitempty"`
	MaxSessions       int      `json:"maxSessions,omitempty" yaml:"maxSessions,omitempty"`
	ReadTimeout       Duration `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout      Duration `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	HeartbeatInterval Duration `json:"heartbeatInterval,omitempty" yaml:"heartbeatInterval,omitempty"`
	IdleTimeout       Duration `json:"idleTimeout,omitempty" yaml:"idleTimeout,omitempty"`
	ShutdownTimeout   Duration `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
	DefaultPage       string   `json:"defaultPage,omitempty" yaml:"defaultPage,omitempty"`
	StyleSheets       []string `json:"styleSheets,omitempty" yaml:"styleSheets,omitempty"`
}

// SnapshotConfig selects where session snapshots are written.
type SnapshotConfig struct {
	// Kind is memory, disk, s3 or empty to disable snapshots.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Dir is the disk store root, relative to the config file.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	Bucket   string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"` // for S3-compatible stores
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"` // text or json
}

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	d := server.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Address:           d.Address,
			MaxSessions:       d.MaxSessions,
			ReadTimeout:       Duration(d.ReadTimeout),
			WriteTimeout:      Duration(d.WriteTimeout),
			HeartbeatInterval: Duration(d.HeartbeatInterval),
			IdleTimeout:       Duration(d.IdleTimeout),
			ShutdownTimeout:   Duration(d.ShutdownTimeout),
			DefaultPage:       d.DefaultPage,
		},
		Log:     LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Metrics: MetricsConfig{Namespace: DefaultNamespace},
	}
}

// Load reads the first config file found in dir.
func Load(dir string) (*Config, error) {
	if path := find(dir); path != "" {
		return LoadFile(path)
	}
	return nil, errors.New("SB100").
		WithDetail("No sliderbind.json, sliderbind.yaml or sliderbind.yml in " + dir).
		WithSuggestion("Run 'sliderbind init' to write a default config file")
}

// LoadFile reads configuration from path. The extension selects JSON or
// YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("SB100").
				WithDetail("No config file at " + path).
				WithSuggestion("Run 'sliderbind init' to write a default config file")
		}
		return nil, errors.New("SB101").Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if len(bytes.TrimSpace(data)) > 0 {
			err = dec.Decode(cfg)
		}
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("SB101").
			Wrap(err).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid for its extension")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path in the format its extension
// names.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("SB103").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("SB103").Wrap(err)
	}
	c.configPath = path
	return nil
}

// WriteDefault writes a default config file into dir and returns its
// path. It refuses to replace an existing config file.
func WriteDefault(dir string) (string, error) {
	if existing := find(dir); existing != "" {
		return "", errors.New("SB104").WithField(existing)
	}
	path := filepath.Join(dir, DefaultFileName)
	if err := New().SaveTo(path); err != nil {
		return "", err
	}
	return path, nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

func (c *Config) applyDefaults() {
	d := New()
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Server.HeartbeatInterval == 0 {
		c.Server.HeartbeatInterval = d.Server.HeartbeatInterval
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Server.DefaultPage == "" {
		c.Server.DefaultPage = d.Server.DefaultPage
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	c.Snapshot.Kind = strings.ToLower(c.Snapshot.Kind)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.MaxSessions < 0 {
		return errors.New("SB102").WithField("server.maxSessions").
			WithDetail("maxSessions must be zero (no limit) or positive")
	}
	if c.Server.HeartbeatInterval >= c.Server.ReadTimeout {
		return errors.New("SB102").WithField("server.heartbeatInterval").
			WithDetail("The heartbeat interval must be shorter than the read timeout or idle connections are dropped between pings")
	}
	if _, err := c.LogLevel(); err != nil {
		return errors.New("SB102").WithField("log.level").Wrap(err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("SB102").WithField("log.format").
			WithDetail("log.format must be text or json")
	}
	switch c.Snapshot.Kind {
	case SnapshotNone, SnapshotMemory:
	case SnapshotDisk:
		if c.Snapshot.Dir == "" {
			return errors.New("SB102").WithField("snapshot.dir").
				WithDetail("A disk snapshot store needs a directory")
		}
	case SnapshotS3:
		if c.Snapshot.Bucket == "" {
			return errors.New("SB102").WithField("snapshot.bucket").
				WithDetail("An s3 snapshot store needs a bucket")
		}
	default:
		return errors.New("SB501").WithField(c.Snapshot.Kind)
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// Logger builds the slog logger the config describes, writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ServerConfig returns the server configuration, with server defaults for
// fields the file does not set.
func (c *Config) ServerConfig() *server.Config {
	sc := server.DefaultConfig()
	sc.Address = c.Server.Address
	sc.MaxSessions = c.Server.MaxSessions
	sc.ReadTimeout = c.Server.ReadTimeout.Std()
	sc.WriteTimeout = c.Server.WriteTimeout.Std()
	sc.HeartbeatInterval = c.Server.HeartbeatInterval.Std()
	sc.IdleTimeout = c.Server.IdleTimeout.Std()
	sc.ShutdownTimeout = c.Server.ShutdownTimeout.Std()
	sc.DefaultPage = c.Server.DefaultPage
	sc.StyleSheets = append([]string(nil), c.Server.StyleSheets...)
	return sc
}

// SnapshotDir returns the disk store directory, resolved against the
// config file's directory.
func (c *Config) SnapshotDir() string {
	if c.Snapshot.Dir == "" || filepath.IsAbs(c.Snapshot.Dir) {
		return c.Snapshot.Dir
	}
	return filepath.Join(c.Dir(), c.Snapshot.Dir)
}

// ShutdownTimeout returns the graceful shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration {
	return c.Server.ShutdownTimeout.Std()
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func find(dir string) string {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Exists reports whether dir holds a config file.
func Exists(dir string) bool {
	return find(dir) != ""
}

// FindProjectRoot walks up from startDir to the first directory holding a
// config file.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("SB100").
				WithDetail("No config file in " + startDir + " or any parent directory").
				WithSuggestion("Run 'sliderbind init' to write a default config file")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads the config file of the enclosing project.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}
	return Load(root)
}
