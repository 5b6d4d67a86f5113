package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and environment
// variables. If configFile is empty, it searches for cryptoproxy.yaml/.yml
// in standard locations. The search requires an explicit YAML extension
// so Viper's SetConfigName doesn't also match the client binary itself.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		viper.SetConfigName("cryptoproxy")
		viper.SetConfigType("yaml")
	}

	// CRYPTOPROXY_MAX_REQUEST_SIZE overrides max_request_size, etc.
	viper.SetEnvPrefix("CRYPTOPROXY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{".", filepath.Join(home, ".cryptoproxy"), "/etc/cryptoproxy"}
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "cryptoproxy"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

func bindNestedEnvKeys() {
	_ = viper.BindEnv("endpoint")
	_ = viper.BindEnv("max_request_size")
	_ = viper.BindEnv("max_proxies_per_msg")
	_ = viper.BindEnv("log_level")
	_ = viper.BindEnv("tracing.enabled")
}

// LoadConfig reads the configuration file, applies environment overrides
// and defaults, validates, and returns the ClientConfig.
func LoadConfig() (*ClientConfig, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No file found -- fall through to pure env/defaults.
	}

	var cfg ClientConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was
// loaded, or "" if none was found (env vars and defaults only).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
