package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when no --config flag is given; a missing file is not an error.
const DefaultConfigPath = ".tfplan-comment.yaml"

// AuthMode selects how we authenticate against GitHub.
type AuthMode string

const (
	AuthModeToken AuthMode = "token"
	AuthModeApp   AuthMode = "app"
	AuthModeAuto  AuthMode = "auto"
)

var (
	ErrNoGitHubAuth      = errors.New("no GitHub authentication configured")
	ErrInvalidAuthMode   = errors.New("invalid GitHub auth mode")
	ErrAppIDMissing      = errors.New("GitHub App ID is required")
	ErrPrivateKeyMissing = errors.New("GitHub App private key is required")
)

type Config struct {
	Plan    PlanConfig    `yaml:"plan"`
	Comment CommentConfig `yaml:"comment"`
	GitHub  GitHubConfig  `yaml:"github"`
}

// PlanConfig describes the plan being commented on. The plan text itself only
// ever comes from the environment or a file.
type PlanConfig struct {
	Text       string `yaml:"-"`
	File       string `yaml:"file"`
	ExitCode   string `yaml:"exit_code"`
	WorkingDir string `yaml:"working_dir"`
	Workspace  string `yaml:"workspace"`
}

type CommentConfig struct {
	Theme string `yaml:"theme"`
	// Author restricts matching of previous comments to this login. When empty,
	// only comments written by a Bot account are considered ours.
	Author string `yaml:"author"`
}

type GitHubConfig struct {
	Token                string          `yaml:"token"`
	AuthMode             AuthMode        `yaml:"auth_mode"`
	App                  GitHubAppConfig `yaml:"app"`
	APIURL               string          `yaml:"api_url"`
	GraphQLURL           string          `yaml:"graphql_url"`
	EnableRateMonitoring bool            `yaml:"enable_rate_monitoring"`
}

type GitHubAppConfig struct {
	AppID          int64  `yaml:"app_id"`
	InstallationID int64  `yaml:"installation_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
	PrivateKey     string `yaml:"private_key"`
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the environment
// without overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the YAML config file if it exists and overlays the environment.
func Load(configPath string) (*Config, error) {
	config := defaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			config.resolvePaths(filepath.Dir(configPath))
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config.loadFromEnv()
	config.applyDefaults()
	return config, nil
}

func defaults() *Config {
	return &Config{
		Plan: PlanConfig{
			ExitCode:   "0",
			WorkingDir: ".",
			Workspace:  "default",
		},
		Comment: CommentConfig{
			Theme: "default",
		},
		GitHub: GitHubConfig{
			AuthMode: AuthModeAuto,
		},
	}
}

// resolvePaths makes relative paths in the config file relative to the file itself.
func (c *Config) resolvePaths(baseDir string) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return
	}
	if c.Plan.File != "" && !filepath.IsAbs(c.Plan.File) {
		c.Plan.File = filepath.Join(absBase, c.Plan.File)
	}
	if c.GitHub.App.PrivateKeyPath != "" && !filepath.IsAbs(c.GitHub.App.PrivateKeyPath) {
		c.GitHub.App.PrivateKeyPath = filepath.Join(absBase, c.GitHub.App.PrivateKeyPath)
	}
}

func (c *Config) loadFromEnv() {
	if plan, ok := os.LookupEnv("PLAN"); ok {
		c.Plan.Text = plan
	}
	c.Plan.File = getEnvOrDefault("PLAN_FILE", c.Plan.File)
	c.Plan.ExitCode = getEnvOrDefault("PLAN_EXIT_CODE", c.Plan.ExitCode)
	c.Plan.WorkingDir = getEnvOrDefault("WORKING_DIR", c.Plan.WorkingDir)
	c.Plan.Workspace = getEnvOrDefault("TF_WORKSPACE", c.Plan.Workspace)

	c.Comment.Theme = getEnvOrDefault("SUMMARY_THEME", c.Comment.Theme)
	c.Comment.Author = getEnvOrDefault("COMMENT_AUTHOR", c.Comment.Author)

	c.GitHub.Token = getEnvOrDefault("GITHUB_TOKEN", c.GitHub.Token)
	if mode := os.Getenv("GITHUB_AUTH_MODE"); mode != "" {
		c.GitHub.AuthMode = AuthMode(strings.ToLower(mode))
	}
	c.GitHub.APIURL = getEnvOrDefault("GITHUB_API_URL", c.GitHub.APIURL)
	c.GitHub.GraphQLURL = getEnvOrDefault("GITHUB_GRAPHQL_URL", c.GitHub.GraphQLURL)
	c.GitHub.EnableRateMonitoring = getEnvBoolOrDefault("GITHUB_RATE_MONITORING", c.GitHub.EnableRateMonitoring)

	if id := getEnvInt64OrDefault("GITHUB_APP_ID", 0); id != 0 {
		c.GitHub.App.AppID = id
	}
	if id := getEnvInt64OrDefault("GITHUB_APP_INSTALLATION_ID", 0); id != 0 {
		c.GitHub.App.InstallationID = id
	}
	c.GitHub.App.PrivateKeyPath = getEnvOrDefault("GITHUB_APP_PRIVATE_KEY_PATH", c.GitHub.App.PrivateKeyPath)
	c.GitHub.App.PrivateKey = getEnvOrDefault("GITHUB_APP_PRIVATE_KEY", c.GitHub.App.PrivateKey)
}

// applyDefaults restores defaults for values explicitly set to empty.
func (c *Config) applyDefaults() {
	if c.Plan.ExitCode == "" {
		c.Plan.ExitCode = "0"
	}
	if c.Plan.WorkingDir == "" {
		c.Plan.WorkingDir = "."
	}
	if c.Plan.Workspace == "" {
		c.Plan.Workspace = "default"
	}
	if c.Comment.Theme == "" {
		c.Comment.Theme = "default"
	}
	if c.GitHub.AuthMode == "" {
		c.GitHub.AuthMode = AuthModeAuto
	}
}

// ReadPlan returns the plan text, preferring PlanConfig.File when it is set.
func (c *Config) ReadPlan() (string, error) {
	if c.Plan.File == "" {
		return c.Plan.Text, nil
	}
	data, err := os.ReadFile(c.Plan.File)
	if err != nil {
		return "", fmt.Errorf("failed to read plan file: %w", err)
	}
	return string(data), nil
}

func (c *Config) IsGitHubTokenConfigured() bool {
	return c.GitHub.Token != ""
}

func (c *Config) IsGitHubAppConfigured() bool {
	app := c.GitHub.App
	return app.AppID != 0 && (app.PrivateKeyPath != "" || app.PrivateKey != "")
}

// ValidateGitHubConfig checks that the selected auth mode has what it needs.
func (c *Config) ValidateGitHubConfig() error {
	switch c.GitHub.AuthMode {
	case AuthModeToken:
		if !c.IsGitHubTokenConfigured() {
			return fmt.Errorf("%w: token mode requires GITHUB_TOKEN", ErrNoGitHubAuth)
		}
	case AuthModeApp:
		if c.GitHub.App.AppID == 0 {
			return ErrAppIDMissing
		}
		if c.GitHub.App.PrivateKeyPath == "" && c.GitHub.App.PrivateKey == "" {
			return ErrPrivateKeyMissing
		}
	case AuthModeAuto:
		if !c.IsGitHubTokenConfigured() && !c.IsGitHubAppConfigured() {
			return ErrNoGitHubAuth
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAuthMode, c.GitHub.AuthMode)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
