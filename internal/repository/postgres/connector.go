package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"devevents/internal/domain"
)

// Connector opens the database handle once and hands the same *sql.DB to every caller.
// A failed attempt is not cached; the next Connect tries again.
type Connector struct {
	dsn  string
	open func(driverName, dataSourceName string) (*sql.DB, error)

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	mu sync.Mutex
	db *sql.DB
}

// NewConnector returns a Connector for the given Postgres DSN.
func NewConnector(dsn string) *Connector {
	return &Connector{
		dsn:             dsn,
		open:            sql.Open,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Connect returns the cached handle, establishing and pinging it on first use.
// Failures are reported as *domain.ConnectionError.
func (c *Connector) Connect(ctx context.Context) (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}
	if c.dsn == "" {
		return nil, &domain.ConnectionError{Err: errors.New("DATABASE_URL is not set")}
	}
	db, err := c.open("postgres", c.dsn)
	if err != nil {
		return nil, &domain.ConnectionError{Err: fmt.Errorf("open: %w", err)}
	}
	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	db.SetConnMaxLifetime(c.ConnMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &domain.ConnectionError{Err: fmt.Errorf("ping: %w", err)}
	}
	c.db = db
	return db, nil
}

// Close closes the cached handle, if any.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
