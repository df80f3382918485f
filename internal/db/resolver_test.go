package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/transitload/internal/config"
	"github.com/vvka-141/transitload/pkg/transitload"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PGHOST", "envhost")
	t.Setenv("PGPORT", "6543")
	t.Setenv("PGUSER", "envuser")
	t.Setenv("PGPASSWORD", "envpass")
	t.Setenv("PGDATABASE", "envdb")
	t.Setenv("PGSSLMODE", "require")
	t.Setenv("DATABASE_URL", "postgresql://u@h/d")
	t.Setenv("TRANSITLOAD_AUTH_METHOD", "aws")
	t.Setenv("AWS_REGION", "eu-west-1")

	env := LoadFromEnvironment()

	assert.Equal(t, "envhost", env.PGHOST)
	assert.Equal(t, "6543", env.PGPORT)
	assert.Equal(t, "envuser", env.PGUSER)
	assert.Equal(t, "envpass", env.PGPASSWORD)
	assert.Equal(t, "envdb", env.PGDATABASE)
	assert.Equal(t, "require", env.PGSSLMODE)
	assert.Equal(t, "postgresql://u@h/d", env.DATABASE_URL)
	assert.Equal(t, "aws", env.TRANSITLOAD_AUTH_METHOD)
	assert.Equal(t, "eu-west-1", env.AWS_REGION)
}

func TestResolveConnectionParams_Defaults(t *testing.T) {
	cfg, err := ResolveConnectionParams(nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, transitload.DefaultDatabase, cfg.Database)
	assert.Equal(t, transitload.DefaultUsername, cfg.Username)
	assert.Equal(t, "prefer", cfg.SSLMode)
	assert.Equal(t, transitload.AuthMethodStandard, cfg.AuthMethod)
}

func TestResolveConnectionParams_ConflictDetection(t *testing.T) {
	flags := &ConnFlags{Connection: "postgresql://localhost/bart_dw", Host: "other"}

	_, err := ResolveConnectionParams(flags, nil, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, transitload.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "cannot specify both")
}

func TestResolveConnectionParams_DatabaseFlagOverridesConnectionString(t *testing.T) {
	flags := &ConnFlags{Connection: "postgresql://bart@warehouse/bart_dw", Database: "bart_staging"}

	cfg, err := ResolveConnectionParams(flags, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "warehouse", cfg.Host)
	assert.Equal(t, "bart_staging", cfg.Database)
}

func TestResolveConnectionParams_ConnectionStringSSLModeFallback(t *testing.T) {
	tests := []struct {
		name    string
		connStr string
		envMode string
		want    string
	}{
		{"explicit sslmode wins", "postgresql://h/db?sslmode=disable", "require", "disable"},
		{"PGSSLMODE fills the gap", "postgresql://h/db", "require", "require"},
		{"prefer by default", "postgresql://h/db", "", "prefer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ResolveConnectionParams(&ConnFlags{Connection: tt.connStr}, &EnvVars{PGSSLMODE: tt.envMode}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.SSLMode)
		})
	}
}

func TestResolveConnectionParams_DatabaseURL(t *testing.T) {
	env := &EnvVars{DATABASE_URL: "postgresql://heroku:pw@herokuhost:5433/herokudb", PGHOST: "ignored"}

	cfg, err := ResolveConnectionParams(nil, env, nil)
	require.NoError(t, err)

	assert.Equal(t, "herokuhost", cfg.Host)
	assert.Equal(t, 5433, cfg.Port)
	assert.Equal(t, "herokudb", cfg.Database)
	assert.Equal(t, "pw", cfg.Password)
}

func TestResolveConnectionParams_GranularFlagsBeatDatabaseURL(t *testing.T) {
	env := &EnvVars{DATABASE_URL: "postgresql://heroku@herokuhost/herokudb"}

	cfg, err := ResolveConnectionParams(&ConnFlags{Host: "flaghost"}, env, nil)
	require.NoError(t, err)

	assert.Equal(t, "flaghost", cfg.Host)
	assert.Equal(t, transitload.DefaultDatabase, cfg.Database)
}

func TestResolveConnectionParams_Precedence(t *testing.T) {
	project := &config.ProjectConfig{Connection: config.ConnectionConfig{
		Host:     "yamlhost",
		Port:     7000,
		Username: "yamluser",
		Database: "yamldb",
		SSLMode:  "verify-ca",
	}}

	t.Run("yaml beats defaults", func(t *testing.T) {
		cfg, err := ResolveConnectionParams(nil, &EnvVars{}, project)
		require.NoError(t, err)
		assert.Equal(t, "yamlhost", cfg.Host)
		assert.Equal(t, 7000, cfg.Port)
		assert.Equal(t, "yamluser", cfg.Username)
		assert.Equal(t, "yamldb", cfg.Database)
		assert.Equal(t, "verify-ca", cfg.SSLMode)
	})

	t.Run("environment beats yaml", func(t *testing.T) {
		env := &EnvVars{PGHOST: "envhost", PGPORT: "6000", PGUSER: "envuser", PGDATABASE: "envdb", PGSSLMODE: "require", PGPASSWORD: "envpass"}
		cfg, err := ResolveConnectionParams(nil, env, project)
		require.NoError(t, err)
		assert.Equal(t, "envhost", cfg.Host)
		assert.Equal(t, 6000, cfg.Port)
		assert.Equal(t, "envuser", cfg.Username)
		assert.Equal(t, "envdb", cfg.Database)
		assert.Equal(t, "require", cfg.SSLMode)
		assert.Equal(t, "envpass", cfg.Password)
	})

	t.Run("flags beat environment", func(t *testing.T) {
		env := &EnvVars{PGHOST: "envhost", PGPORT: "6000", PGUSER: "envuser", PGDATABASE: "envdb"}
		flags := &ConnFlags{Host: "flaghost", Port: 5000, Username: "flaguser", Database: "flagdb", SSLMode: "disable"}
		cfg, err := ResolveConnectionParams(flags, env, project)
		require.NoError(t, err)
		assert.Equal(t, "flaghost", cfg.Host)
		assert.Equal(t, 5000, cfg.Port)
		assert.Equal(t, "flaguser", cfg.Username)
		assert.Equal(t, "flagdb", cfg.Database)
		assert.Equal(t, "disable", cfg.SSLMode)
	})
}

func TestResolveConnectionParams_InvalidPGPORT(t *testing.T) {
	_, err := ResolveConnectionParams(nil, &EnvVars{PGPORT: "not-a-port"}, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, transitload.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "$PGPORT")
}

func TestResolveConnectionParams_AuthMethods(t *testing.T) {
	t.Run("explicit aws with region from environment", func(t *testing.T) {
		cfg, err := ResolveConnectionParams(&ConnFlags{AuthMethod: "aws"}, &EnvVars{AWS_REGION: "us-west-2"}, nil)
		require.NoError(t, err)
		assert.Equal(t, transitload.AuthMethodAWSIAM, cfg.AuthMethod)
		assert.Equal(t, "us-west-2", cfg.AWSRegion)
	})

	t.Run("google from yaml", func(t *testing.T) {
		project := &config.ProjectConfig{Connection: config.ConnectionConfig{AuthMethod: "google", GoogleInstance: "proj:us-central1:dw"}}
		cfg, err := ResolveConnectionParams(nil, &EnvVars{}, project)
		require.NoError(t, err)
		assert.Equal(t, transitload.AuthMethodGoogleIAM, cfg.AuthMethod)
		assert.Equal(t, "proj:us-central1:dw", cfg.GoogleInstance)
	})

	t.Run("azure inferred from environment", func(t *testing.T) {
		env := &EnvVars{AZURE_TENANT_ID: "tenant", AZURE_CLIENT_ID: "client", AZURE_CLIENT_SECRET: "secret"}
		cfg, err := ResolveConnectionParams(nil, env, nil)
		require.NoError(t, err)
		assert.Equal(t, transitload.AuthMethodAzureEntraID, cfg.AuthMethod)
		assert.Equal(t, "tenant", cfg.AzureTenantID)
		assert.Equal(t, "client", cfg.AzureClientID)
		assert.Equal(t, "secret", cfg.AzureClientSecret)
	})

	t.Run("explicit standard ignores azure environment", func(t *testing.T) {
		env := &EnvVars{AZURE_TENANT_ID: "tenant", TRANSITLOAD_AUTH_METHOD: "standard"}
		cfg, err := ResolveConnectionParams(nil, env, nil)
		require.NoError(t, err)
		assert.Equal(t, transitload.AuthMethodStandard, cfg.AuthMethod)
		assert.Empty(t, cfg.AzureTenantID)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := ResolveConnectionParams(&ConnFlags{AuthMethod: "kerberos"}, nil, nil)
		assert.True(t, errors.Is(err, transitload.ErrUnsupportedAuthMethod))
	})
}
