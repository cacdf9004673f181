package journal

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PoolConfig sizes the connection pool behind a journal.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PoolOption adjusts a PoolConfig.
type PoolOption func(*PoolConfig)

// PoolFor returns the default pool for dsn. SQLite gets a single connection,
// which keeps writes serialized and makes :memory: databases usable. A
// handler process writes a couple of rows per invocation, so PostgreSQL gets
// a small pool.
func PoolFor(dsn string) PoolConfig {
	if isSQLite(dsn) {
		return PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1}
	}
	return PoolConfig{MaxOpenConns: 4, MaxIdleConns: 2, ConnMaxLifetime: 30 * time.Minute}
}

// MaxOpenConns caps open connections.
func MaxOpenConns(n int) PoolOption {
	return func(c *PoolConfig) { c.MaxOpenConns = n }
}

// MaxIdleConns caps idle connections.
func MaxIdleConns(n int) PoolOption {
	return func(c *PoolConfig) { c.MaxIdleConns = n }
}

// ConnMaxLifetime closes connections older than d. Zero keeps them forever.
func ConnMaxLifetime(d time.Duration) PoolOption {
	return func(c *PoolConfig) { c.ConnMaxLifetime = d }
}

// Apply returns a copy of c with opts applied.
func (c PoolConfig) Apply(opts ...PoolOption) PoolConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// ConfigurePool sizes db's pool.
func ConfigurePool(db *gorm.DB, c PoolConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("journal pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(c.ConnMaxLifetime)
	return nil
}
