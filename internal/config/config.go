package config

import "time"

// Config is the root configuration for a factory node.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Storage  StorageConfig  `yaml:"storage"`
	Factory  FactoryConfig  `yaml:"factory"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

// InstanceConfig identifies this node.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageConfig selects where ledger state is kept.
type StorageConfig struct {
	Driver   string       `yaml:"driver"` // memory, sqlite or postgres
	SQLite   SQLiteConfig `yaml:"sqlite"`
	Postgres DBConfig     `yaml:"postgres"`
}

// SQLiteConfig holds the SQLite database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// FactoryConfig describes the factory deployment the CLI operates on.
type FactoryConfig struct {
	Label        string `yaml:"label"`          // Label the factory is instantiated and looked up under
	Owner        string `yaml:"owner"`          // Default sender
	TokenCodeID  uint64 `yaml:"token_code_id"`  // Liquidity token template
	PairCodeID   uint64 `yaml:"pair_code_id"`   // Pair template
	DefaultLimit uint32 `yaml:"default_limit"` // Page size when none is requested
	MaxLimit     uint32 `yaml:"max_limit"`
}

// CacheConfig holds the client's registry cache settings.
type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
