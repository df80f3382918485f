package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/transitload/internal/config"
	"github.com/vvka-141/transitload/internal/db"
	"github.com/vvka-141/transitload/pkg/transitload"
)

// connectionFlags holds the common connection-related flag values.
type connectionFlags struct {
	connection     string
	host           string
	port           int
	username       string
	database       string
	sslMode        string
	authMethod     string
	awsRegion      string
	googleInstance string
	azureTenantID  string
	azureClientID  string
}

// loadFlags holds the flag values shaping a run.
type loadFlags struct {
	schema                 string
	filePrefix             string
	tripUpdatesBatchSize   int
	serviceAlertsBatchSize int
	writeMode              string
	ingestionFallback      string
	continueOnError        bool
	timeout                time.Duration
}

func addConnectionFlags(cmd *cobra.Command, f *connectionFlags) {
	cmd.Flags().StringVar(&f.connection, "connection", "",
		"PostgreSQL connection string (URI or ADO.NET format).\n"+
			"Mutually exclusive with --host, --port, --username and --sslmode.\n"+
			"Alternative: DATABASE_URL environment variable.\n"+
			"Example: postgresql://bart@localhost:5432/bart_dw")
	cmd.Flags().StringVarP(&f.host, "host", "h", "",
		"PostgreSQL server host\n"+
			"Precedence: --host > $PGHOST > connection.host > localhost")
	cmd.Flags().IntVarP(&f.port, "port", "p", 0,
		"PostgreSQL server port\n"+
			"Precedence: --port > $PGPORT > connection.port > 5432")
	cmd.Flags().StringVarP(&f.username, "username", "U", "",
		"PostgreSQL user (default: $PGUSER, connection.username or bart)")
	cmd.Flags().StringVarP(&f.database, "database", "d", "",
		"Warehouse database (default: $PGDATABASE, connection.database or bart_dw).\n"+
			"Overrides the database of a connection string.")
	cmd.Flags().StringVar(&f.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full\n"+
			"(default: prefer, or $PGSSLMODE)")
	cmd.Flags().StringVar(&f.authMethod, "auth-method", "",
		"Authentication: standard|aws|google|azure\n"+
			"(default: $TRANSITLOAD_AUTH_METHOD, connection.auth_method or standard)")
	cmd.Flags().StringVar(&f.awsRegion, "aws-region", "",
		"AWS region for RDS IAM tokens (overrides $AWS_REGION)")
	cmd.Flags().StringVar(&f.googleInstance, "google-instance", "",
		"Cloud SQL instance connection name project:region:instance")
	cmd.Flags().StringVar(&f.azureTenantID, "azure-tenant-id", "",
		"Azure AD tenant/directory ID (overrides $AZURE_TENANT_ID)")
	cmd.Flags().StringVar(&f.azureClientID, "azure-client-id", "",
		"Azure AD application/client ID (overrides $AZURE_CLIENT_ID)")
}

func addLoadFlags(cmd *cobra.Command, f *loadFlags) {
	cmd.Flags().StringVar(&f.schema, "schema", "",
		"PostgreSQL schema of the destination tables (default: public)")
	cmd.Flags().StringVar(&f.filePrefix, "file-prefix", "",
		"Feed prefix of snapshot file names (default: $TRANSITLOAD_FILE_PREFIX or bart)")
	cmd.Flags().IntVar(&f.tripUpdatesBatchSize, "trip-updates-batch-size", 0,
		fmt.Sprintf("Rows per write round-trip for trip_updates (default %d)", transitload.DefaultTripUpdatesBatchSize))
	cmd.Flags().IntVar(&f.serviceAlertsBatchSize, "service-alerts-batch-size", 0,
		fmt.Sprintf("Rows per write round-trip for service_alerts (default %d)", transitload.DefaultServiceAlertsBatchSize))
	cmd.Flags().StringVar(&f.writeMode, "write-mode", "",
		"Write strategy: insert (multi-row INSERT batches) or copy (COPY protocol)")
	cmd.Flags().StringVar(&f.ingestionFallback, "ingestion-fallback", "",
		"Stamp for files without ingestion_ts or timestamp columns:\n"+
			"load-time (default) or snapshot (instant in the file name)")
	cmd.Flags().BoolVar(&f.continueOnError, "continue-on-error", false,
		"Record a failing file and continue with the next one.\n"+
			"The run still exits non-zero.")
	cmd.Flags().DurationVar(&f.timeout, "timeout", transitload.DefaultTimeout,
		"Catastrophic failure protection for the whole run\n"+
			"Examples: 30s, 5m, 1h30m")
}

// loadProjectConfig loads .env into the environment, then transitload.yaml.
// Returns an empty config if no transitload.yaml exists at the default location.
func loadProjectConfig(path string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	var (
		projectCfg *config.ProjectConfig
		err        error
	)
	if path != "" {
		projectCfg, err = config.LoadFile(path)
	} else {
		projectCfg, err = config.Load(".")
		if errors.Is(err, config.ErrConfigNotFound) {
			return &config.ProjectConfig{}, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w: %w", config.ConfigFileName, transitload.ErrInvalidConfig, err)
	}
	return projectCfg, nil
}

// resolveConnection resolves the warehouse connection from flags, the
// environment and transitload.yaml.
func resolveConnection(flags connectionFlags, projectCfg *config.ProjectConfig, verbose bool) (*transitload.ConnectionConfig, error) {
	connConfig, err := db.ResolveConnectionParams(&db.ConnFlags{
		Connection:     flags.connection,
		Host:           flags.host,
		Port:           flags.port,
		Username:       flags.username,
		Database:       flags.database,
		SSLMode:        flags.sslMode,
		AuthMethod:     flags.authMethod,
		AWSRegion:      flags.awsRegion,
		GoogleInstance: flags.googleInstance,
		AzureTenantID:  flags.azureTenantID,
		AzureClientID:  flags.azureClientID,
	}, db.LoadFromEnvironment(), projectCfg)
	if err != nil {
		return nil, err
	}

	if verbose {
		logConnectionVerbose(connConfig)
	}
	return connConfig, nil
}

// buildLoadConfig resolves a LoadConfig with precedence
// flag > environment > transitload.yaml > default.
func buildLoadConfig(cmd *cobra.Command, rawDirArg string, conn *transitload.ConnectionConfig, lf loadFlags, projectCfg *config.ProjectConfig, verbose bool) (transitload.LoadConfig, error) {
	ls := projectCfg.Load
	changed := cmd.Flags().Changed

	tripBatch, err := resolveInt(lf.tripUpdatesBatchSize, "TRANSITLOAD_TRIP_UPDATES_BATCH_SIZE", ls.TripUpdatesBatchSize, transitload.DefaultTripUpdatesBatchSize)
	if err != nil {
		return transitload.LoadConfig{}, err
	}
	alertBatch, err := resolveInt(lf.serviceAlertsBatchSize, "TRANSITLOAD_SERVICE_ALERTS_BATCH_SIZE", ls.ServiceAlertsBatchSize, transitload.DefaultServiceAlertsBatchSize)
	if err != nil {
		return transitload.LoadConfig{}, err
	}

	timeout := lf.timeout
	if !changed("timeout") && ls.Timeout != "" {
		parsed, err := time.ParseDuration(ls.Timeout)
		if err != nil {
			return transitload.LoadConfig{}, fmt.Errorf("invalid load.timeout in %s: %w: %w", config.ConfigFileName, transitload.ErrInvalidConfig, err)
		}
		timeout = parsed
	}

	cfg := transitload.LoadConfig{
		Connection:             conn,
		Schema:                 resolveString(lf.schema, "TRANSITLOAD_SCHEMA", ls.Schema, transitload.DefaultSchema),
		RawDir:                 resolveString(rawDirArg, "RAW_DIR", ls.RawDir, transitload.DefaultRawDir),
		FilePrefix:             resolveString(lf.filePrefix, "TRANSITLOAD_FILE_PREFIX", ls.FilePrefix, transitload.DefaultFilePrefix),
		TripUpdatesBatchSize:   tripBatch,
		ServiceAlertsBatchSize: alertBatch,
		WriteMode:              transitload.WriteMode(resolveString(lf.writeMode, "TRANSITLOAD_WRITE_MODE", ls.WriteMode, string(transitload.WriteModeInsert))),
		IngestionFallback:      transitload.IngestionFallback(resolveString(lf.ingestionFallback, "TRANSITLOAD_INGESTION_FALLBACK", ls.IngestionFallback, string(transitload.IngestionFallbackLoadTime))),
		ContinueOnError:        lf.continueOnError || (!changed("continue-on-error") && ls.ContinueOnError),
		Timeout:                timeout,
		Verbose:                verbose,
	}
	return cfg, nil
}

func resolveString(flag, envKey, yamlValue, def string) string {
	for _, v := range []string{flag, os.Getenv(envKey), yamlValue} {
		if v != "" {
			return v
		}
	}
	return def
}

func resolveInt(flag int, envKey string, yamlValue, def int) (int, error) {
	if flag != 0 {
		return flag, nil
	}
	if s := os.Getenv(envKey); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid $%s %q: %w", envKey, s, transitload.ErrInvalidConfig)
		}
		return n, nil
	}
	if yamlValue != 0 {
		return yamlValue, nil
	}
	return def, nil
}

// resolveOutput returns the value of an output option with precedence
// flag > environment > transitload.yaml.
func resolveOutput(flag, envKey, yamlValue string) string {
	return resolveString(flag, envKey, yamlValue, "")
}

// logConnectionVerbose logs connection details when verbose mode is enabled.
func logConnectionVerbose(connConfig *transitload.ConnectionConfig) {
	fmt.Fprintf(os.Stderr, "[VERBOSE] Connection resolved:\n")
	fmt.Fprintf(os.Stderr, "  Host: %s\n", connConfig.Host)
	fmt.Fprintf(os.Stderr, "  Port: %d\n", connConfig.Port)
	fmt.Fprintf(os.Stderr, "  User: %s\n", connConfig.Username)
	fmt.Fprintf(os.Stderr, "  Database: %s\n", connConfig.Database)
	fmt.Fprintf(os.Stderr, "  SSL Mode: %s\n", connConfig.SSLMode)
	fmt.Fprintf(os.Stderr, "  Auth Method: %s\n", connConfig.AuthMethod)
}
