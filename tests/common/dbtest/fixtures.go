//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"parking-reservation/internal/infra/catalog"
	"parking-reservation/internal/infra/repository"
	"parking-reservation/internal/pkg/clock"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// SetAvailable overrides the free unit count of a facility.
func SetAvailable(t *testing.T, db DBLike, facilityID string, available int) {
	t.Helper()

	tag, err := db.Exec(context.Background(),
		"UPDATE facilities SET available = $2 WHERE id = $1", facilityID, available)
	require.NoError(t, err)
	require.EqualValues(t, 1, tag.RowsAffected(), "facility %s not found", facilityID)
}

func Available(t *testing.T, db DBLike, facilityID string) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		"SELECT available FROM facilities WHERE id = $1", facilityID).Scan(&n)
	require.NoError(t, err)
	return n
}

func CountConfirmed(t *testing.T, db DBLike) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(), "SELECT count(*) FROM confirmed_bookings").Scan(&n)
	require.NoError(t, err)
	return n
}

// seeds the embedded facility catalog
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := catalog.Load("")
	if err != nil {
		return err
	}
	return repository.NewFacilityRegistry(pool, clock.NewRealClock()).Seed(ctx, entries)
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		truncateSQL.Store(buildTruncateSQL(ctx, pool))
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}

// lists the public tables once; an empty result means the lookup failed
func buildTruncateSQL(ctx context.Context, db DBLike) string {
	rows, err := db.Query(ctx, `
	  SELECT 'public.' || quote_ident(tablename)
	  FROM pg_tables
	  WHERE schemaname = 'public'`)
	if err != nil {
		return ""
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return ""
		}
		tables = append(tables, t)
	}
	if rows.Err() != nil {
		return ""
	}
	if len(tables) == 0 {
		return "SELECT 1"
	}
	return "TRUNCATE " + strings.Join(tables, ", ") + " CASCADE;"
}
