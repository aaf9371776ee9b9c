package models

// Config is the tool configuration, loaded from file and environment.
type Config struct {
	Scanning ScanningConfig `mapstructure:"scanning" json:"scanning" yaml:"scanning"`
	Output   OutputConfig   `mapstructure:"output" json:"output" yaml:"output"`
}

// ScanningConfig controls the directory scan driver.
type ScanningConfig struct {
	Recursive bool `mapstructure:"recursive" json:"recursive" yaml:"recursive"`
	// FollowSymlinks admits symlinked files into the scan. Symlinked
	// directories are never descended, regardless of this setting.
	FollowSymlinks bool     `mapstructure:"follow_symlinks" json:"follow_symlinks" yaml:"follow_symlinks"`
	IncludePattern []string `mapstructure:"include_pattern" json:"include_pattern" yaml:"include_pattern"`
	ExcludePattern []string `mapstructure:"exclude_pattern" json:"exclude_pattern" yaml:"exclude_pattern"`
	Workers        int      `mapstructure:"workers" json:"workers" yaml:"workers"` // 0 = one per CPU
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format  string `mapstructure:"format" json:"format" yaml:"format"` // "text", "json", "yaml"
	Verbose bool   `mapstructure:"verbose" json:"verbose" yaml:"verbose"`
}
