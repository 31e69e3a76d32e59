package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Конфигурация движка затирания
type Config struct {
	Security struct {
		RequireRoot         bool     `yaml:"require_root"`
		RequireConfirmation bool     `yaml:"require_confirmation"`
		ExcludedDevices     []string `yaml:"excluded_devices"`
	} `yaml:"security"`

	Wipe struct {
		DefaultMethod      string  `yaml:"default_method"`
		Verify             bool    `yaml:"verify"`
		BlockSize          int     `yaml:"block_size"` // 0 = подбор по ёмкости
		MaxSpeedMBps       float64 `yaml:"max_speed_mbps"`
		ProgressEveryBlock int     `yaml:"progress_every_blocks"`
		Segments           int     `yaml:"segments"`
		ScratchDirName     string  `yaml:"scratch_dir_name"`
	} `yaml:"wipe"`

	Verify struct {
		Samples   int `yaml:"samples"`
		BlockSize int `yaml:"block_size"`
	} `yaml:"verify"`

	Health struct {
		SmartctlPath string `yaml:"smartctl_path"`
		TimeoutSec   int    `yaml:"timeout_sec"`
		MaxParallel  int    `yaml:"max_parallel"`
	} `yaml:"health"`

	Escalation struct {
		TimeoutSec int `yaml:"timeout_sec"`
	} `yaml:"escalation"`

	Logging struct {
		Level   string `yaml:"level"`
		File    string `yaml:"file"`
		Console bool   `yaml:"console"`
	} `yaml:"logging"`

	Reporting struct {
		Enabled      bool   `yaml:"enabled"`
		LocalPath    string `yaml:"local_path"`
		DatabasePath string `yaml:"database_path"`
	} `yaml:"reporting"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	cfg := &Config{}

	cfg.Security.RequireRoot = false
	cfg.Security.RequireConfirmation = true
	cfg.Security.ExcludedDevices = []string{}

	cfg.Wipe.DefaultMethod = "quick"
	cfg.Wipe.Verify = true
	cfg.Wipe.BlockSize = 0 // подбирается по ёмкости устройства
	cfg.Wipe.MaxSpeedMBps = 0
	cfg.Wipe.ProgressEveryBlock = 32
	cfg.Wipe.Segments = 10
	cfg.Wipe.ScratchDirName = ".securewipe_tmp"

	cfg.Verify.Samples = 100
	cfg.Verify.BlockSize = 1024 * 1024

	cfg.Health.SmartctlPath = "smartctl"
	cfg.Health.TimeoutSec = 30
	cfg.Health.MaxParallel = 4

	cfg.Escalation.TimeoutSec = 60

	cfg.Logging.Level = "INFO"
	cfg.Logging.File = ""
	cfg.Logging.Console = true

	cfg.Reporting.Enabled = true
	cfg.Reporting.LocalPath = "./reports"
	cfg.Reporting.DatabasePath = "./reports/securewipe.db"

	return cfg
}

// Load загружает конфигурацию из файла
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate проверяет конфигурацию на валидность
func Validate(config *Config) error {
	validMethods := map[string]bool{
		"quick":   true,
		"dod":     true,
		"gutmann": true,
		"random":  true,
	}
	if !validMethods[config.Wipe.DefaultMethod] {
		return fmt.Errorf("invalid default method: %s", config.Wipe.DefaultMethod)
	}

	if config.Wipe.BlockSize < 0 {
		return fmt.Errorf("block size cannot be negative, got %d", config.Wipe.BlockSize)
	}
	if config.Wipe.BlockSize > 128*1024*1024 {
		return fmt.Errorf("block size too large (max 128MB), got %d", config.Wipe.BlockSize)
	}

	if config.Wipe.MaxSpeedMBps < 0 {
		return fmt.Errorf("max speed cannot be negative, got %f", config.Wipe.MaxSpeedMBps)
	}
	if config.Wipe.MaxSpeedMBps > 10000 {
		return fmt.Errorf("max speed too high (max 10000MB/s), got %f", config.Wipe.MaxSpeedMBps)
	}

	if config.Wipe.ProgressEveryBlock <= 0 {
		return fmt.Errorf("progress interval must be positive, got %d", config.Wipe.ProgressEveryBlock)
	}

	if config.Wipe.Segments <= 0 || config.Wipe.Segments > 100 {
		return fmt.Errorf("segments must be between 1 and 100, got %d", config.Wipe.Segments)
	}

	if config.Wipe.ScratchDirName == "" || config.Wipe.ScratchDirName == "." || config.Wipe.ScratchDirName == "/" {
		return fmt.Errorf("invalid scratch dir name: %q", config.Wipe.ScratchDirName)
	}

	if config.Verify.Samples <= 0 || config.Verify.Samples > 10000 {
		return fmt.Errorf("verify samples must be between 1 and 10000, got %d", config.Verify.Samples)
	}
	if config.Verify.BlockSize <= 0 {
		return fmt.Errorf("verify block size must be positive, got %d", config.Verify.BlockSize)
	}

	if config.Health.MaxParallel <= 0 || config.Health.MaxParallel > 64 {
		return fmt.Errorf("health max parallel must be between 1 and 64, got %d", config.Health.MaxParallel)
	}
	if config.Health.TimeoutSec <= 0 {
		return fmt.Errorf("health timeout must be positive, got %d", config.Health.TimeoutSec)
	}

	if config.Escalation.TimeoutSec <= 0 || config.Escalation.TimeoutSec > 600 {
		return fmt.Errorf("escalation timeout must be between 1 and 600 seconds, got %d", config.Escalation.TimeoutSec)
	}

	validLevels := map[string]bool{
		"DEBUG": true,
		"INFO":  true,
		"WARN":  true,
		"ERROR": true,
	}
	if !validLevels[config.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// Save сохраняет конфигурацию в файл
func Save(config *Config, path string) error {
	if err := Validate(config); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// EscalationTimeout возвращает таймаут эскалации привилегий
func (config *Config) EscalationTimeout() time.Duration {
	if config.Escalation.TimeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(config.Escalation.TimeoutSec) * time.Second
}

// HealthTimeout возвращает таймаут одной проверки здоровья
func (config *Config) HealthTimeout() time.Duration {
	if config.Health.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(config.Health.TimeoutSec) * time.Second
}
