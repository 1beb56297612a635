package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/livetemplate/tinkerpad"
)

// Config represents the tinkerpad configuration
type Config struct {
	Title    string         `yaml:"title"`
	Server   ServerConfig   `yaml:"server"`
	Editor   EditorConfig   `yaml:"editor"`
	Sessions SessionsConfig `yaml:"sessions"`
	Preview  PreviewConfig  `yaml:"preview"`
	API      *APIConfig     `yaml:"api,omitempty"`
	Features FeaturesConfig `yaml:"features"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port  int    `yaml:"port"`
	Host  string `yaml:"host"`
	Debug bool   `yaml:"debug"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// EditorConfig holds the defaults of a new editing session
type EditorConfig struct {
	ProjectName string `yaml:"project_name,omitempty"` // Pre-filled project name (default: empty)
	StyleFile   string `yaml:"style_file,omitempty"`   // Default CSS file name (default: styles.css)
	ScriptFile  string `yaml:"script_file,omitempty"`  // Default JavaScript file name (default: script.js)
	Tab         string `yaml:"tab,omitempty"`          // Initially selected tab: html, css or js (default: html)
}

// GetStyleFile returns the default CSS file name with its extension enforced
func (c EditorConfig) GetStyleFile() string {
	if c.StyleFile == "" {
		return tinkerpad.DefaultStyleFile
	}
	return tinkerpad.NormalizeFileName(tinkerpad.CSS, c.StyleFile)
}

// GetScriptFile returns the default JavaScript file name with its extension enforced
func (c EditorConfig) GetScriptFile() string {
	if c.ScriptFile == "" {
		return tinkerpad.DefaultScriptFile
	}
	return tinkerpad.NormalizeFileName(tinkerpad.JavaScript, c.ScriptFile)
}

// GetTab returns the initial tab (default: html)
func (c EditorConfig) GetTab() tinkerpad.Language {
	l, err := tinkerpad.ParseLanguage(c.Tab)
	if err != nil {
		return tinkerpad.HTML
	}
	return l
}

// EditorOptions returns the options used to create a session editor
func (c EditorConfig) EditorOptions() []tinkerpad.Option {
	return []tinkerpad.Option{
		tinkerpad.WithFileNames(c.GetStyleFile(), c.GetScriptFile()),
		tinkerpad.WithProjectName(c.ProjectName),
		tinkerpad.WithActiveTab(c.GetTab()),
	}
}

// SessionsConfig controls the in-memory session store
type SessionsConfig struct {
	TTL             string `yaml:"ttl,omitempty"`              // Idle time before a session is dropped (default: 1h)
	CleanupInterval string `yaml:"cleanup_interval,omitempty"` // How often idle sessions are swept (default: 5m)
	MaxSessions     int    `yaml:"max_sessions,omitempty"`     // Sessions kept before evicting the least recent (default: 1000)

	ActionsPerSecond float64 `yaml:"actions_per_second,omitempty"` // Sustained editor actions per session (default: 20)
	ActionBurst      int     `yaml:"action_burst,omitempty"`       // Actions a session may send at once (default: 40)
}

// GetTTL returns the session idle timeout (default: 1h)
func (c SessionsConfig) GetTTL() time.Duration {
	return parseDuration(c.TTL, time.Hour)
}

// GetCleanupInterval returns the sweep interval (default: 5m)
func (c SessionsConfig) GetCleanupInterval() time.Duration {
	return parseDuration(c.CleanupInterval, 5*time.Minute)
}

// GetMaxSessions returns the session capacity (default: 1000)
func (c SessionsConfig) GetMaxSessions() int {
	if c.MaxSessions <= 0 {
		return 1000
	}
	return c.MaxSessions
}

// GetActionsPerSecond returns the per-session action rate (default: 20)
func (c SessionsConfig) GetActionsPerSecond() float64 {
	if c.ActionsPerSecond <= 0 {
		return 20
	}
	return c.ActionsPerSecond
}

// GetActionBurst returns the per-session action burst (default: 40)
func (c SessionsConfig) GetActionBurst() int {
	if c.ActionBurst <= 0 {
		return 40
	}
	return c.ActionBurst
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// PreviewConfig controls the sandbox of the preview frame
type PreviewConfig struct {
	// Sandbox lists the iframe sandbox tokens granted to the preview
	// (default: allow-scripts). Tokens that give the preview the host's
	// origin or navigation are rejected by Validate.
	Sandbox []string `yaml:"sandbox,omitempty"`
}

// GetSandbox returns the sandbox attribute value (default: "allow-scripts")
func (c PreviewConfig) GetSandbox() string {
	if len(c.Sandbox) == 0 {
		return "allow-scripts"
	}
	return strings.Join(c.Sandbox, " ")
}

// forbiddenSandboxTokens would let previewed code reach the editor's origin,
// storage or top-level navigation.
var forbiddenSandboxTokens = []string{
	"allow-same-origin",
	"allow-top-navigation",
	"allow-top-navigation-by-user-activation",
	"allow-top-navigation-to-custom-protocols",
}

// Validate checks that the sandbox keeps the preview isolated
func (c PreviewConfig) Validate() error {
	for _, tok := range c.Sandbox {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if !strings.HasPrefix(tok, "allow-") {
			return fmt.Errorf("preview.sandbox: invalid token %q", tok)
		}
		for _, bad := range forbiddenSandboxTokens {
			if tok == bad {
				return fmt.Errorf("preview.sandbox: %q would break preview isolation", tok)
			}
		}
	}
	return nil
}

// FeaturesConfig holds feature flags
type FeaturesConfig struct {
	Compression bool `yaml:"compression"` // Gzip responses (default: true)
}

// APIConfig holds configuration of the stateless JSON API
type APIConfig struct {
	Enabled   bool             `yaml:"enabled"` // Enable /api endpoints (default: false)
	CORS      *CORSConfig      `yaml:"cors,omitempty"`
	RateLimit *RateLimitConfig `yaml:"rate_limit,omitempty"`
}

// CORSConfig holds CORS configuration for the API
type CORSConfig struct {
	Origins []string `yaml:"origins,omitempty"` // Allowed origins (e.g., ["http://localhost:3000", "*"])
}

// RateLimitConfig holds rate limiting configuration for the API
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"` // Rate limit in requests per second (default: 10)
	Burst             int     `yaml:"burst,omitempty"`               // Burst size (default: 20)
	MaxTrackedIPs     int     `yaml:"max_tracked_ips,omitempty"`     // Max unique IPs to track (default: 10000)
}

// GetCORSOrigins returns the configured CORS origins, or nil if not configured
func (c *APIConfig) GetCORSOrigins() []string {
	if c == nil || c.CORS == nil {
		return nil
	}
	return c.CORS.Origins
}

// GetRateLimitRPS returns the rate limit in requests per second (default: 10)
func (c *APIConfig) GetRateLimitRPS() float64 {
	if c == nil || c.RateLimit == nil || c.RateLimit.RequestsPerSecond <= 0 {
		return 10
	}
	return c.RateLimit.RequestsPerSecond
}

// GetRateLimitBurst returns the burst size (default: 20)
func (c *APIConfig) GetRateLimitBurst() int {
	if c == nil || c.RateLimit == nil || c.RateLimit.Burst <= 0 {
		return 20
	}
	return c.RateLimit.Burst
}

// GetMaxTrackedIPs returns the maximum number of unique IPs to track (default: 10000)
func (c *APIConfig) GetMaxTrackedIPs() int {
	if c == nil || c.RateLimit == nil || c.RateLimit.MaxTrackedIPs <= 0 {
		return 10000
	}
	return c.RateLimit.MaxTrackedIPs
}

// IsAPIEnabled returns whether the API is enabled
func (c *Config) IsAPIEnabled() bool {
	return c.API != nil && c.API.Enabled
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d is out of range", c.Server.Port)
	}
	if c.Editor.Tab != "" {
		if _, err := tinkerpad.ParseLanguage(c.Editor.Tab); err != nil {
			return fmt.Errorf("editor.tab: %w", err)
		}
	}
	return c.Preview.Validate()
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Title: "Web Code Editor",
		Server: ServerConfig{
			Port:  8080,
			Host:  "localhost",
			Debug: false,
		},
		Editor: EditorConfig{
			StyleFile:  tinkerpad.DefaultStyleFile,
			ScriptFile: tinkerpad.DefaultScriptFile,
			Tab:        string(tinkerpad.HTML),
		},
		Sessions: SessionsConfig{
			TTL:             "1h",
			CleanupInterval: "5m",
			MaxSessions:     1000,
		},
		Preview: PreviewConfig{
			Sandbox: []string{"allow-scripts"},
		},
		Features: FeaturesConfig{
			Compression: true,
		},
	}
}

// Load loads configuration from a YAML file
// If the file doesn't exist, returns the default configuration
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return config, nil
}

// LoadFromDir looks for tinkerpad.yaml, then tinkerpad.yml, in the given directory
// If neither is found, returns the default configuration
func LoadFromDir(dir string) (*Config, error) {
	yamlPath := filepath.Join(dir, "tinkerpad.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return Load(yamlPath)
	}

	return Load(filepath.Join(dir, "tinkerpad.yml"))
}

// Environment variables read by ApplyEnv
const (
	EnvHost       = "TINKERPAD_HOST"
	EnvPort       = "TINKERPAD_PORT"
	EnvDebug      = "TINKERPAD_DEBUG"
	EnvSessionTTL = "TINKERPAD_SESSION_TTL"
)

// LoadDotEnv loads variables from the given .env files (default: ./.env) into
// the process environment without overriding variables that are already set.
// Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides configuration values from TINKERPAD_* environment variables
func (c *Config) ApplyEnv() error {
	if host := os.Getenv(EnvHost); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv(EnvPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvPort, port)
		}
		c.Server.Port = p
	}
	if debug := os.Getenv(EnvDebug); debug != "" {
		b, err := strconv.ParseBool(debug)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q", EnvDebug, debug)
		}
		c.Server.Debug = b
	}
	if ttl := os.Getenv(EnvSessionTTL); ttl != "" {
		if _, err := time.ParseDuration(ttl); err != nil {
			return fmt.Errorf("%s: invalid duration %q", EnvSessionTTL, ttl)
		}
		c.Sessions.TTL = ttl
	}
	return c.Validate()
}

// Save writes the configuration to a YAML file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
