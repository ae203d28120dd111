package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"

	"github.com/gitify-app/updater/client/internal/updatemanager"
	"github.com/gitify-app/updater/client/internal/updatemanager/downloader"
	"github.com/gitify-app/updater/client/internal/updatemanager/sign"
	"github.com/gitify-app/updater/util"
	"github.com/gitify-app/updater/version"
)

const (
	// EnvPrefix is the prefix of the environment variables overriding the config file
	EnvPrefix = "GITIFY_UPDATER"

	// DefaultListenAddress is where the daemon serves its local API
	DefaultListenAddress = "127.0.0.1:33171"

	defaultRequestsPerMinute = 30
	defaultBurst             = 5

	configFileName = "config.json"
	appDirName     = "gitify-updater"
)

// DefaultAllowedOrigins are the webview origins of the Gitify desktop app
var DefaultAllowedOrigins = []string{"tauri://localhost", "http://tauri.localhost", "https://tauri.localhost"}

// RateLimit limits the mutating API routes per client
type RateLimit struct {
	RequestsPerMinute float64 `json:"requestsPerMinute" envconfig:"REQUESTS_PER_MINUTE"`
	Burst             int     `json:"burst" envconfig:"BURST"`
}

// Config is the persisted configuration of the updater daemon
type Config struct {
	ManifestURL      string   `json:"manifestUrl" envconfig:"MANIFEST_URL"`
	CheckInterval    Duration `json:"checkInterval" envconfig:"CHECK_INTERVAL"`
	WarmupDelay      Duration `json:"warmupDelay" envconfig:"WARMUP_DELAY"`
	NoUpdateDwell    Duration `json:"noUpdateDwell" envconfig:"NO_UPDATE_DWELL"`
	RequestTimeout   Duration `json:"requestTimeout" envconfig:"REQUEST_TIMEOUT"`
	ProgressInterval Duration `json:"progressInterval" envconfig:"PROGRESS_INTERVAL"`
	MaxArtifactSize  int64    `json:"maxArtifactSize" envconfig:"MAX_ARTIFACT_SIZE"`
	// PublicKeys are PEM encoded artifact public keys. Signature checks are skipped when empty.
	PublicKeys    []string  `json:"publicKeys,omitempty" envconfig:"PUBLIC_KEYS"`
	DataDir       string    `json:"dataDir" envconfig:"DATA_DIR"`
	ListenAddress string    `json:"listenAddress" envconfig:"LISTEN_ADDRESS"`
	Development   bool      `json:"development" envconfig:"DEVELOPMENT"`
	RateLimit     RateLimit `json:"rateLimit" envconfig:"RATE_LIMIT"`
	// AllowedOrigins are the browser origins allowed to call the API. Requests without an Origin header are always allowed.
	AllowedOrigins []string `json:"allowedOrigins" envconfig:"ALLOWED_ORIGINS"`
}

// Default returns the configuration of a fresh install
func Default() *Config {
	return &Config{
		ManifestURL:      version.ManifestURL(),
		CheckInterval:    Duration{updatemanager.DefaultCheckInterval},
		WarmupDelay:      Duration{updatemanager.DefaultWarmupDelay},
		NoUpdateDwell:    Duration{updatemanager.DefaultNoUpdateDwell},
		RequestTimeout:   Duration{updatemanager.DefaultRequestTimeout},
		ProgressInterval: Duration{downloader.DefaultProgressInterval},
		MaxArtifactSize:  downloader.DefaultArtifactLimit,
		DataDir:          DefaultDataDir(),
		ListenAddress:    DefaultListenAddress,
		Development:      version.IsDevelopment(),
		RateLimit: RateLimit{
			RequestsPerMinute: defaultRequestsPerMinute,
			Burst:             defaultBurst,
		},
		AllowedOrigins: append([]string(nil), DefaultAllowedOrigins...),
	}
}

// DefaultDataDir returns the per user directory holding the config, logs and install results
func DefaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		log.Warnf("failed to resolve user config dir, falling back to the temp dir: %v", err)
		dir = os.TempDir()
	}
	return filepath.Join(dir, appDirName)
}

// DefaultConfigPath returns the location of the config file inside the default data dir
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), configFileName)
}

// Load reads the config file at path, creating it with defaults if it does not exist,
// and applies the environment overrides on top
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := read(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read(ctx context.Context, path string) (*Config, error) {
	cfg := Default()
	if !util.FileExists(path) {
		log.Infof("generating new config %s", path)
		if err := Save(ctx, path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if _, err := util.ReadJson(path, cfg); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path atomically
func Save(ctx context.Context, path string, cfg *Config) error {
	if err := util.WriteJson(ctx, path, cfg); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if _, err := parseURL("manifest", c.ManifestURL); err != nil {
		return err
	}
	if c.CheckInterval.Duration <= 0 {
		return fmt.Errorf("check interval must be positive, got %s", c.CheckInterval)
	}
	if c.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.WarmupDelay.Duration < 0 || c.NoUpdateDwell.Duration < 0 || c.ProgressInterval.Duration < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if c.MaxArtifactSize <= 0 {
		return fmt.Errorf("max artifact size must be positive, got %d", c.MaxArtifactSize)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir is not set")
	}
	for _, origin := range c.AllowedOrigins {
		if origin == "*" || strings.TrimSpace(origin) == "" {
			return fmt.Errorf("invalid allowed origin %q, origins must be listed explicitly", origin)
		}
	}
	return nil
}

// RestartRequired returns the json names of the fields that differ in updated and
// only take effect on a daemon restart. The check interval is applied live.
func (c *Config) RestartRequired(updated *Config) []string {
	current := reflect.ValueOf(c).Elem()
	next := reflect.ValueOf(updated).Elem()
	t := current.Type()

	var fields []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Name == "CheckInterval" {
			continue
		}
		if reflect.DeepEqual(current.Field(i).Interface(), next.Field(i).Interface()) {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		fields = append(fields, name)
	}
	return fields
}

// ManagerConfig returns the update manager tunables of this config
func (c *Config) ManagerConfig() updatemanager.Config {
	return updatemanager.Config{
		CurrentVersion: version.Version(),
		CheckInterval:  c.CheckInterval.Duration,
		WarmupDelay:    c.WarmupDelay.Duration,
		NoUpdateDwell:  c.NoUpdateDwell.Duration,
		RequestTimeout: c.RequestTimeout.Duration,
		Development:    c.Development,
	}
}

// Verifier returns the artifact verifier for the configured public keys, or nil when none are set
func (c *Config) Verifier() (*sign.Verifier, error) {
	if len(c.PublicKeys) == 0 {
		return nil, nil
	}

	bundles := make([][]byte, 0, len(c.PublicKeys))
	for _, key := range c.PublicKeys {
		bundles = append(bundles, []byte(key))
	}
	return sign.NewVerifier(bundles...)
}

// LogFile returns the default log file inside the data dir
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "updater.log")
}

// parseURL parses and validates a service URL
func parseURL(serviceName, serviceURL string) (*url.URL, error) {
	parsed, err := url.ParseRequestURI(serviceURL)
	if err != nil {
		return nil, fmt.Errorf("invalid %s URL %q: %w", serviceName, serviceURL, err)
	}

	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return nil, fmt.Errorf(
			"invalid %s URL provided %s. Supported format [http|https]://[host]:[port]/path",
			serviceName, serviceURL)
	}
	return parsed, nil
}
