package writer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/transitload/internal/logging"
	"github.com/vvka-141/transitload/internal/provision"
	"github.com/vvka-141/transitload/internal/schema"
	testhelpers "github.com/vvka-141/transitload/internal/testing"
	"github.com/vvka-141/transitload/pkg/transitload"
)

func TestWriter_Integration(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	dbName := testhelpers.UniqueDBName(t)
	t.Cleanup(testhelpers.CreateTestDB(t, connString, dbName))
	pool := testhelpers.GetTestPool(t, connString, dbName)

	ctx := context.Background()
	logger := logging.NewNullLogger()
	require.NoError(t, provision.New("public", logger).ResetSchema(ctx, pool, schema.Tables(), provision.ConfirmDestructiveReset))

	for _, mode := range []transitload.WriteMode{transitload.WriteModeInsert, transitload.WriteModeCopy} {
		t.Run(string(mode), func(t *testing.T) {
			_, err := pool.Exec(ctx, `TRUNCATE service_alerts`)
			require.NoError(t, err)

			rec := alertsRecord(t, 1000)
			defer rec.Release()

			n, err := New(pool, "public", logger, WithMode(mode)).Append(ctx, schema.ServiceAlerts(), rec, 300)
			require.NoError(t, err)
			assert.Equal(t, int64(1000), n)

			var count int
			var maxStart time.Time
			require.NoError(t, pool.QueryRow(ctx,
				`SELECT count(*), max(active_period_start) FROM service_alerts`).Scan(&count, &maxStart))
			assert.Equal(t, 1000, count)
			assert.True(t, base.Add(999*time.Second).Equal(maxStart))
		})
	}
}
