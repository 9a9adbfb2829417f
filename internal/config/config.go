package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int `koanf:"port"`
	} `koanf:"server"`

	Auth struct {
		JWTSecret string `koanf:"jwt_secret"`
	} `koanf:"auth"`

	AI struct {
		APIKey      string  `koanf:"api_key"`
		Model       string  `koanf:"model"`
		MaxTokens   int     `koanf:"max_tokens"`
		Temperature float64 `koanf:"temperature"`
	} `koanf:"ai"`

	Redis struct {
		Addr string `koanf:"addr"`
	} `koanf:"redis"`

	Feed struct {
		DefaultPageSize int `koanf:"default_page_size"`
		MaxPageSize     int `koanf:"max_page_size"`
	} `koanf:"feed"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"server.port":            8888,
		"ai.model":               "gemini-1.5-flash",
		"feed.default_page_size": 50,
		"feed.max_page_size":     100,
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		// Try to load from default locations
		defaultPaths := []string{"./cfdata/chatterfeed.toml", "./chatterfeed.toml", "$HOME/.chatterfeed.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix CHATTERFEED_
	k.Load(env.Provider("CHATTERFEED_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(s), "_", ".", -1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# ChatterFeed Configuration

[server]
port = 8888

[auth]
jwt_secret = "change-me"

[ai]
api_key = "your-gemini-api-key"
model = "gemini-1.5-flash"
temperature = 0.2

[redis]
addr = "localhost:6379"

[feed]
default_page_size = 50
max_page_size = 100
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	if strings.TrimSpace(config.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth jwt_secret is required")
	}

	if config.Feed.DefaultPageSize <= 0 || config.Feed.DefaultPageSize > config.Feed.MaxPageSize {
		return fmt.Errorf("feed page size defaults are inconsistent")
	}

	// Hashtag generation is optional; only validate the model when a key is set
	if config.AI.APIKey != "" && strings.TrimSpace(config.AI.Model) == "" {
		return fmt.Errorf("ai model is required when api_key is set")
	}

	return nil
}
