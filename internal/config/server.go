package config

import (
	"errors"
	"fmt"
	"time"
)

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle-timeout"`
	// RelayerToken, when set, is required as a bearer token on write routes.
	RelayerToken string `mapstructure:"relayer-token"`
}

func (cfg *ServerConfig) Validate() error {
	if cfg.Host == "" {
		return errors.New("missing server host")
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("server port %d out of range", cfg.Port)
	}

	if cfg.WriteTimeout <= 0 {
		return errors.New("server write-timeout must be positive")
	}

	if cfg.ReadTimeout <= 0 {
		return errors.New("server read-timeout must be positive")
	}

	if cfg.IdleTimeout <= 0 {
		return errors.New("server idle-timeout must be positive")
	}

	return nil
}

func (cfg *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}
