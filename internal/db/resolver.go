package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/transitload/internal/config"
	"github.com/vvka-141/transitload/pkg/transitload"
)

// ConnFlags represents connection parameters from CLI flags.
// Granular flags follow PostgreSQL conventions (-h, -p, -U, -d).
//
// There is no password flag. Use one of these instead:
//  1. $PGPASSWORD (directly or through .env)
//  2. .pgpass file
//  3. Connection string with embedded password
type ConnFlags struct {
	Connection string
	Host       string
	Port       int
	Username   string
	Database   string
	SSLMode    string

	AuthMethod     string
	AWSRegion      string
	GoogleInstance string
	AzureTenantID  string
	AzureClientID  string
}

// hasGranular reports whether any server-addressing flag was given.
// Database is excluded because it may override the database of a connection string.
func (f *ConnFlags) hasGranular() bool {
	return f.Host != "" || f.Port != 0 || f.Username != "" || f.SSLMode != ""
}

// EnvVars holds the environment consulted during resolution.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST       string
	PGPORT       string
	PGUSER       string
	PGPASSWORD   string
	PGDATABASE   string
	PGSSLMODE    string
	DATABASE_URL string

	TRANSITLOAD_AUTH_METHOD     string
	TRANSITLOAD_GOOGLE_INSTANCE string
	AWS_REGION                  string

	// Azure SDK standard names
	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment snapshots the process environment. Call it after
// .env has been loaded so those values are visible.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:                      os.Getenv("PGHOST"),
		PGPORT:                      os.Getenv("PGPORT"),
		PGUSER:                      os.Getenv("PGUSER"),
		PGPASSWORD:                  os.Getenv("PGPASSWORD"),
		PGDATABASE:                  os.Getenv("PGDATABASE"),
		PGSSLMODE:                   os.Getenv("PGSSLMODE"),
		DATABASE_URL:                os.Getenv("DATABASE_URL"),
		TRANSITLOAD_AUTH_METHOD:     os.Getenv("TRANSITLOAD_AUTH_METHOD"),
		TRANSITLOAD_GOOGLE_INSTANCE: os.Getenv("TRANSITLOAD_GOOGLE_INSTANCE"),
		AWS_REGION:                  os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:             os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:             os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:         os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// ResolveConnectionParams resolves the warehouse connection with this precedence:
//
//  1. --connection flag, parsed as a whole
//  2. DATABASE_URL, when no granular flag is given
//  3. granular flags, then PG* variables, then transitload.yaml, then defaults
//     (localhost:5432, database bart_dw, user bart, sslmode prefer)
//
// --database overrides the database of a connection string. Giving both
// --connection and a granular flag is rejected as ambiguous.
func ResolveConnectionParams(flags *ConnFlags, env *EnvVars, project *config.ProjectConfig) (*transitload.ConnectionConfig, error) {
	if flags == nil {
		flags = &ConnFlags{}
	}
	if env == nil {
		env = &EnvVars{}
	}
	var pc config.ConnectionConfig
	if project != nil {
		pc = project.Connection
	}

	if flags.Connection != "" && flags.hasGranular() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U, --sslmode)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://bart@localhost:5432/bart_dw\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U bart -d bart_dw\n"+
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=bart\n"+
				"%w", transitload.ErrInvalidConfig,
		)
	}

	var (
		cfg *transitload.ConnectionConfig
		err error
	)
	switch {
	case flags.Connection != "":
		cfg, err = resolveFromConnectionString(flags.Connection, env)
	case !flags.hasGranular() && env.DATABASE_URL != "":
		cfg, err = resolveFromConnectionString(env.DATABASE_URL, env)
	default:
		cfg, err = resolveFromGranularParams(flags, env, pc)
	}
	if err != nil {
		return nil, err
	}

	if flags.Database != "" {
		cfg.Database = flags.Database
	}

	if err := applyAuth(cfg, flags, env, pc); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveFromConnectionString(connStr string, env *EnvVars) (*transitload.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	// libpq treats PGSSLMODE as a fallback for strings that omit sslmode.
	if cfg.SSLMode == "" {
		cfg.SSLMode = firstNonEmpty(env.PGSSLMODE, "prefer")
	}
	return cfg, nil
}

func resolveFromGranularParams(flags *ConnFlags, env *EnvVars, pc config.ConnectionConfig) (*transitload.ConnectionConfig, error) {
	cfg := &transitload.ConnectionConfig{
		AuthMethod:       transitload.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	cfg.Host = firstNonEmpty(flags.Host, env.PGHOST, pc.Host, "localhost")

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case env.PGPORT != "":
		port, err := strconv.Atoi(env.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", env.PGPORT, transitload.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = 5432
	}

	cfg.Username = firstNonEmpty(flags.Username, env.PGUSER, pc.Username, transitload.DefaultUsername)
	cfg.Password = env.PGPASSWORD
	cfg.Database = firstNonEmpty(env.PGDATABASE, pc.Database, transitload.DefaultDatabase)
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, env.PGSSLMODE, pc.SSLMode, "prefer")

	return cfg, nil
}

// applyAuth selects the authentication method and attaches cloud parameters.
// An explicit method wins; otherwise Azure credentials in the environment
// switch to Entra ID, as the Azure SDK tooling does.
func applyAuth(cfg *transitload.ConnectionConfig, flags *ConnFlags, env *EnvVars, pc config.ConnectionConfig) error {
	method, err := transitload.ParseAuthMethod(firstNonEmpty(flags.AuthMethod, env.TRANSITLOAD_AUTH_METHOD, pc.AuthMethod))
	if err != nil {
		return err
	}

	tenantID := firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
	clientID := firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
	explicit := firstNonEmpty(flags.AuthMethod, env.TRANSITLOAD_AUTH_METHOD, pc.AuthMethod) != ""
	if !explicit && (tenantID != "" || clientID != "") {
		method = transitload.AuthMethodAzureEntraID
	}

	cfg.AuthMethod = method
	switch method {
	case transitload.AuthMethodAWSIAM:
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION, pc.AWSRegion)
	case transitload.AuthMethodGoogleIAM:
		cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, env.TRANSITLOAD_GOOGLE_INSTANCE, pc.GoogleInstance)
	case transitload.AuthMethodAzureEntraID:
		cfg.AzureTenantID = tenantID
		cfg.AzureClientID = clientID
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
