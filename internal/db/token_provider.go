package db

import (
	"context"
	"time"
)

// TokenProvider abstracts cloud token acquisition for warehouse authentication.
type TokenProvider interface {
	// GetToken returns a token to use as the PostgreSQL password and its expiry.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for logs. It must not include secrets.
	String() string
}

// AzurePostgreSQLScope is the OAuth scope for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"

// RDSTokenLifetime is how long an RDS IAM auth token stays valid.
const RDSTokenLifetime = 15 * time.Minute
