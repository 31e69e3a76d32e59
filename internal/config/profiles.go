package config

import (
	"fmt"
)

// ApplyProfile применяет профиль производительности к конфигурации
func ApplyProfile(cfg *Config, profile string) error {
	switch profile {
	case "safe":
		cfg.Wipe.MaxSpeedMBps = 50
		cfg.Wipe.ProgressEveryBlock = 8
		cfg.Verify.Samples = 200
	case "balanced":
		cfg.Wipe.MaxSpeedMBps = 200
		cfg.Wipe.ProgressEveryBlock = 32
		cfg.Verify.Samples = 100
	case "aggressive":
		cfg.Wipe.MaxSpeedMBps = 0 // без ограничения
		cfg.Wipe.ProgressEveryBlock = 64
		cfg.Verify.Samples = 50
	default:
		return fmt.Errorf("неизвестный профиль: %s", profile)
	}
	return nil
}
