package config

import (
	"errors"
	"fmt"
)

const (
	DbTypeMongo = "mongo"
	DbTypeBolt  = "bolt"
)

type DbConfig struct {
	// Type selects the storage backend, mongo by default.
	Type     string `mapstructure:"type"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DbName   string `mapstructure:"db-name"`
	Address  string `mapstructure:"address"`
	// BoltPath is the database file used when Type is bolt.
	BoltPath string `mapstructure:"bolt-path"`
}

func (cfg *DbConfig) Validate() error {
	if cfg.Type == "" {
		cfg.Type = DbTypeMongo
	}

	switch cfg.Type {
	case DbTypeMongo:
		if cfg.Address == "" {
			return errors.New("missing db address")
		}
		if cfg.DbName == "" {
			return errors.New("missing db name")
		}
	case DbTypeBolt:
		if cfg.BoltPath == "" {
			return errors.New("missing db bolt-path")
		}
	default:
		return fmt.Errorf("unsupported db type %q", cfg.Type)
	}

	return nil
}
