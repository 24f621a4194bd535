package redisom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/redisom/internal/db"
	dbredis "github.com/kailas-cloud/redisom/internal/db/redis"
)

const defaultReadinessTimeout = 10 * time.Second

// Client owns the store connection shared by repositories and the
// migrator. It is safe for concurrent use.
type Client struct {
	store db.Store
	log   *zap.Logger
}

// CommandObserver receives one callback per store command with the
// operation name, elapsed time and outcome. metrics.CommandCollector
// implements it.
type CommandObserver interface {
	ObserveCommand(op string, elapsed time.Duration, err error)
}

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	username string
	password string
	selectDB int
	tls      bool

	readinessTimeout time.Duration
	logger           *zap.Logger
	observer         CommandObserver
}

// WithAddrs sets the database addresses to connect to.
func WithAddrs(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = append(c.addrs, addrs...)
	})
}

// WithUsername sets the authentication username.
func WithUsername(username string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
	})
}

// WithPassword sets the authentication password.
func WithPassword(password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.password = password
	})
}

// WithDB selects a logical database.
func WithDB(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.selectDB = n
	})
}

// WithTLS enables TLS on the connection.
func WithTLS() Option {
	return optionFunc(func(c *clientConfig) {
		c.tls = true
	})
}

// WithLogger enables structured logging for migrations and other
// client operations. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithCommandObserver wires per-command observation, typically a
// metrics.CommandCollector.
func WithCommandObserver(obs CommandObserver) Option {
	return optionFunc(func(c *clientConfig) {
		c.observer = obs
	})
}

// WithReadinessTimeout bounds the initial readiness wait. Defaults to
// ten seconds.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// New creates a Client and connects to the database. The provided
// context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("redisom: database address required (use WithAddrs or NewFromURL)")
	}

	log := cfg.logger
	if log == nil {
		log = zap.NewNop()
	}

	store, err := dbredis.NewStore(dbredis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.selectDB,
		TLS:      cfg.tls,
		Observer: cfg.observer,
	})
	if err != nil {
		return nil, fmt.Errorf("redisom: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("redisom: database not ready: %w", err)
	}

	return &Client{store: store, log: log}, nil
}

// NewFromURL creates a Client from a redis:// or rediss:// URL. Options
// given here are applied on top of the values parsed from the URL.
func NewFromURL(ctx context.Context, rawURL string, opts ...Option) (*Client, error) {
	conn, err := db.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redisom: %w", err)
	}

	base := []Option{
		WithAddrs(conn.Addrs...),
		WithUsername(conn.Username),
		WithPassword(conn.Password),
		WithDB(conn.DB),
	}
	if conn.TLS {
		base = append(base, WithTLS())
	}
	return New(ctx, append(base, opts...)...)
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}
