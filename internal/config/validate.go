package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.SQLite.Path == "" {
			return errors.New("storage.sqlite.path is required")
		}
	case DriverPostgres:
		if err := c.Storage.Postgres.validate("storage.postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage.driver must be one of memory, sqlite, postgres, got %q", c.Storage.Driver)
	}

	if c.Factory.Label == "" {
		return errors.New("factory.label is required")
	}
	if c.Factory.TokenCodeID == c.Factory.PairCodeID {
		return fmt.Errorf("factory.token_code_id and factory.pair_code_id must differ, both are %d", c.Factory.PairCodeID)
	}
	if c.Factory.MaxLimit < 1 {
		return errors.New("factory.max_limit must be >= 1")
	}
	if c.Factory.DefaultLimit > c.Factory.MaxLimit {
		return fmt.Errorf("factory.default_limit (%d) cannot exceed max_limit (%d)", c.Factory.DefaultLimit, c.Factory.MaxLimit)
	}

	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl must be >= 0")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
