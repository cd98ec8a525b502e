package config

import (
	"sync"
	"sync/atomic"
)

// The process-wide configuration. It is loaded at most once; later
// Initialize calls report the outcome of the first load.
var (
	active   atomic.Pointer[Config]
	initOnce sync.Once
	initErr  error
)

// Initialize loads path (or only the environment when path is empty) and
// publishes the result for GetConfig. A failed first load is sticky: the
// relay does not retry with a different file.
func Initialize(path string) error {
	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}
		active.Store(cfg)
	})
	return initErr
}

// GetConfig returns the loaded configuration, or nil before Initialize succeeds.
func GetConfig() *Config {
	return active.Load()
}
