package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInstanceID           = "local"
	DefaultDriver               = DriverSQLite
	DefaultSQLitePath           = "pair-factory.db"
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 10
	DefaultMinConns             = 2
	DefaultFactoryLabel         = "factory"
	DefaultTokenCodeID          = 1
	DefaultPairCodeID           = 2
	DefaultPageLimit            = 10
	DefaultMaxPageLimit         = 30
	DefaultCacheTTL             = 5 * time.Minute
	DefaultCacheCleanupInterval = 10 * time.Minute
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
)

func (c *Config) applyDefaults() {
	// Storage defaults
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultDriver
	}
	if c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = DefaultSQLitePath
	}
	applyDBDefaults(&c.Storage.Postgres)

	// Factory defaults
	if c.Factory.Label == "" {
		c.Factory.Label = DefaultFactoryLabel
	}
	if c.Factory.TokenCodeID == 0 {
		c.Factory.TokenCodeID = DefaultTokenCodeID
	}
	if c.Factory.PairCodeID == 0 {
		c.Factory.PairCodeID = DefaultPairCodeID
	}
	if c.Factory.DefaultLimit == 0 {
		c.Factory.DefaultLimit = DefaultPageLimit
	}
	if c.Factory.MaxLimit == 0 {
		c.Factory.MaxLimit = DefaultMaxPageLimit
	}

	// Cache defaults
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Cache.CleanupInterval == 0 {
		c.Cache.CleanupInterval = DefaultCacheCleanupInterval
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
