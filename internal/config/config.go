package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/apkscope/apkscope/pkg/models"
)

var defaultConfig = models.Config{
	Scanning: models.ScanningConfig{
		Recursive:      true,
		FollowSymlinks: false,
		IncludePattern: []string{"*.apk", "*.xapk"},
		ExcludePattern: []string{},
		Workers:        0,
	},
	Output: models.OutputConfig{
		Format: "text",
	},
}

// Load reads configuration from a file (explicit path, current directory
// or ~/.config/apkscope) and the APKSCOPE_* environment, on top of the
// built-in defaults. A missing config file is the normal case.
func Load(configPath string) (*models.Config, error) {
	viper.SetConfigType("yaml")

	viper.SetDefault("scanning.recursive", defaultConfig.Scanning.Recursive)
	viper.SetDefault("scanning.follow_symlinks", defaultConfig.Scanning.FollowSymlinks)
	viper.SetDefault("scanning.include_pattern", defaultConfig.Scanning.IncludePattern)
	viper.SetDefault("scanning.exclude_pattern", defaultConfig.Scanning.ExcludePattern)
	viper.SetDefault("scanning.workers", defaultConfig.Scanning.Workers)
	viper.SetDefault("output.format", defaultConfig.Output.Format)
	viper.SetDefault("output.verbose", defaultConfig.Output.Verbose)

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("apkscope")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "apkscope"))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("APKSCOPE")
	viper.AutomaticEnv()

	var config models.Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
