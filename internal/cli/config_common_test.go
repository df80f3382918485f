package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/transitload/internal/config"
	"github.com/vvka-141/transitload/pkg/transitload"
)

var loadEnvKeys = []string{
	"RAW_DIR", "TRANSITLOAD_SCHEMA", "TRANSITLOAD_FILE_PREFIX", "TRANSITLOAD_WRITE_MODE",
	"TRANSITLOAD_INGESTION_FALLBACK", "TRANSITLOAD_TRIP_UPDATES_BATCH_SIZE", "TRANSITLOAD_SERVICE_ALERTS_BATCH_SIZE",
}

func clearLoadEnv(t *testing.T) {
	for _, k := range loadEnvKeys {
		t.Setenv(k, "")
	}
}

// newTestCommand returns a command carrying the load flags, parsed from args.
func newTestCommand(t *testing.T, args ...string) (*cobra.Command, *loadFlags) {
	var lf loadFlags
	cmd := &cobra.Command{Use: "load"}
	addLoadFlags(cmd, &lf)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, &lf
}

var testConn = &transitload.ConnectionConfig{Host: "localhost", Port: 5432, Database: "bart_dw"}

func TestBuildLoadConfig_Defaults(t *testing.T) {
	clearLoadEnv(t)
	cmd, lf := newTestCommand(t)

	cfg, err := buildLoadConfig(cmd, "", testConn, *lf, &config.ProjectConfig{}, false)
	require.NoError(t, err)

	assert.Equal(t, transitload.DefaultSchema, cfg.Schema)
	assert.Equal(t, transitload.DefaultRawDir, cfg.RawDir)
	assert.Equal(t, transitload.DefaultFilePrefix, cfg.FilePrefix)
	assert.Equal(t, transitload.DefaultTripUpdatesBatchSize, cfg.TripUpdatesBatchSize)
	assert.Equal(t, transitload.DefaultServiceAlertsBatchSize, cfg.ServiceAlertsBatchSize)
	assert.Equal(t, transitload.WriteModeInsert, cfg.WriteMode)
	assert.Equal(t, transitload.IngestionFallbackLoadTime, cfg.IngestionFallback)
	assert.Equal(t, transitload.DefaultTimeout, cfg.Timeout)
	assert.False(t, cfg.ContinueOnError)
	assert.NoError(t, cfg.Validate())
}

func TestBuildLoadConfig_Precedence(t *testing.T) {
	project := &config.ProjectConfig{Load: config.LoadSection{
		Schema:               "yaml_schema",
		RawDir:               "/yaml/raw",
		FilePrefix:           "yaml",
		TripUpdatesBatchSize: 100,
		WriteMode:            "copy",
		ContinueOnError:      true,
		Timeout:              "10m",
	}}

	t.Run("yaml beats defaults", func(t *testing.T) {
		clearLoadEnv(t)
		cmd, lf := newTestCommand(t)
		cfg, err := buildLoadConfig(cmd, "", testConn, *lf, project, false)
		require.NoError(t, err)
		assert.Equal(t, "yaml_schema", cfg.Schema)
		assert.Equal(t, "/yaml/raw", cfg.RawDir)
		assert.Equal(t, 100, cfg.TripUpdatesBatchSize)
		assert.Equal(t, transitload.DefaultServiceAlertsBatchSize, cfg.ServiceAlertsBatchSize)
		assert.Equal(t, transitload.WriteModeCopy, cfg.WriteMode)
		assert.True(t, cfg.ContinueOnError)
		assert.Equal(t, 10*time.Minute, cfg.Timeout)
	})

	t.Run("environment beats yaml", func(t *testing.T) {
		clearLoadEnv(t)
		t.Setenv("RAW_DIR", "/env/raw")
		t.Setenv("TRANSITLOAD_TRIP_UPDATES_BATCH_SIZE", "200")
		t.Setenv("TRANSITLOAD_WRITE_MODE", "insert")
		cmd, lf := newTestCommand(t)
		cfg, err := buildLoadConfig(cmd, "", testConn, *lf, project, false)
		require.NoError(t, err)
		assert.Equal(t, "/env/raw", cfg.RawDir)
		assert.Equal(t, 200, cfg.TripUpdatesBatchSize)
		assert.Equal(t, transitload.WriteModeInsert, cfg.WriteMode)
	})

	t.Run("flags and argument beat environment", func(t *testing.T) {
		clearLoadEnv(t)
		t.Setenv("RAW_DIR", "/env/raw")
		t.Setenv("TRANSITLOAD_TRIP_UPDATES_BATCH_SIZE", "200")
		cmd, lf := newTestCommand(t, "--trip-updates-batch-size=300", "--timeout=1m", "--continue-on-error=false", "--ingestion-fallback=snapshot")
		cfg, err := buildLoadConfig(cmd, "/arg/raw", testConn, *lf, project, false)
		require.NoError(t, err)
		assert.Equal(t, "/arg/raw", cfg.RawDir)
		assert.Equal(t, 300, cfg.TripUpdatesBatchSize)
		assert.Equal(t, time.Minute, cfg.Timeout)
		assert.False(t, cfg.ContinueOnError)
		assert.Equal(t, transitload.IngestionFallbackSnapshot, cfg.IngestionFallback)
	})
}

func TestBuildLoadConfig_InvalidValues(t *testing.T) {
	t.Run("batch size from environment", func(t *testing.T) {
		clearLoadEnv(t)
		t.Setenv("TRANSITLOAD_SERVICE_ALERTS_BATCH_SIZE", "lots")
		cmd, lf := newTestCommand(t)
		_, err := buildLoadConfig(cmd, "", testConn, *lf, &config.ProjectConfig{}, false)
		assert.True(t, errors.Is(err, transitload.ErrInvalidConfig))
		assert.Contains(t, err.Error(), "$TRANSITLOAD_SERVICE_ALERTS_BATCH_SIZE")
	})

	t.Run("timeout from yaml", func(t *testing.T) {
		clearLoadEnv(t)
		cmd, lf := newTestCommand(t)
		_, err := buildLoadConfig(cmd, "", testConn, *lf, &config.ProjectConfig{Load: config.LoadSection{Timeout: "soon"}}, false)
		assert.True(t, errors.Is(err, transitload.ErrInvalidConfig))
	})
}

func TestLoadProjectConfig(t *testing.T) {
	t.Run("missing default file is empty config", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, err := loadProjectConfig("")
		require.NoError(t, err)
		assert.Equal(t, &config.ProjectConfig{}, cfg)
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		_, err := loadProjectConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.True(t, errors.Is(err, transitload.ErrInvalidConfig))
	})

	t.Run("explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte("load:\n  raw_dir: /srv/raw\n"), 0644))
		cfg, err := loadProjectConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "/srv/raw", cfg.Load.RawDir)
	})
}

func TestDiscoveryTarget(t *testing.T) {
	clearLoadEnv(t)
	t.Setenv("TRANSITLOAD_FILE_PREFIX", "muni")

	dir, prefix := discoveryTarget("", "", &config.ProjectConfig{Load: config.LoadSection{RawDir: "/yaml/raw"}})
	assert.Equal(t, "/yaml/raw", dir)
	assert.Equal(t, "muni", prefix)

	dir, prefix = discoveryTarget("/arg", "bart", &config.ProjectConfig{})
	assert.Equal(t, "/arg", dir)
	assert.Equal(t, "bart", prefix)
}
