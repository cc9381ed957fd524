// internal/workers/logistics/optimize-logistics/config.go
package optimizelogistics

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
