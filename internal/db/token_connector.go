package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/transitload/internal/retry"
	"github.com/vvka-141/transitload/pkg/transitload"
)

// tokenExpiryWarning is how close to expiry a fresh token must be before it
// is logged. A token only has to outlive the pool's first connections.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
// The token from the TokenProvider is used as the PostgreSQL password.
type TokenBasedConnector struct {
	config        *transitload.ConnectionConfig
	tokenProvider TokenProvider
	retryExecutor *retry.Executor
	providerName  string
	logger        transitload.Logger
	now           func() time.Time
}

var _ transitload.Connector = (*TokenBasedConnector)(nil)

// NewTokenBasedConnector creates a connector that authenticates with tokens.
// providerName appears in errors and log lines (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *transitload.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger transitload.Logger) *TokenBasedConnector {
	if config == nil {
		panic("config cannot be nil")
	}
	if tokenProvider == nil {
		panic("tokenProvider cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		retryExecutor: retry.NewConnectExecutor(logger),
		providerName:  providerName,
		logger:        logger,
		now:           time.Now,
	}
}

// Connect acquires a token and opens the pool. Each retry fetches a new token.
func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire %s token from %s: %w: %w", c.providerName, c.tokenProvider, transitload.ErrConnectionFailed, err)
		}

		if remaining := expiresOn.Sub(c.now()); remaining < tokenExpiryWarning {
			c.logger.Info("Warning: %s token expires in %v", c.providerName, remaining.Round(time.Second))
		}

		withToken := *c.config
		withToken.Password = token

		poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(&withToken))
		if err != nil {
			return fmt.Errorf("failed to parse connection config: %w: %w", transitload.ErrInvalidConfig, err)
		}
		configurePool(poolConfig, c.logger)

		pool, err = openPool(ctx, poolConfig, c.config)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Verbose("Connected to %s:%d/%s with %s token auth", c.config.Host, c.config.Port, c.config.Database, c.providerName)
	return pool, nil
}
