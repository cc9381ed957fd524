// internal/workers/strategy/current-strategy-phase/config.go
package currentstrategyphase

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
