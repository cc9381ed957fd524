// internal/workers/opportunity/evaluate-opportunity/config.go
package evaluateopportunity

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
