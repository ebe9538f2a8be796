package collectors

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/billdonner/server-monitor/internal/domain"
	"github.com/billdonner/server-monitor/internal/querycache"
)

// PostgresCollector polls PostgreSQL using the pg_stat_* system views plus
// the target's custom queries. Custom queries run through a per-target
// sub-query cache so a query configured with a one-minute TTL is not
// re-issued on every five-second poll.
type PostgresCollector struct {
	target domain.Target
	db     *sql.DB
	cache  *querycache.Cache

	// runQuery executes one custom query; tests swap it out to script
	// per-query outcomes without a database.
	runQuery func(ctx context.Context, q domain.SubQuery) (domain.MetricSample, error)
}

func newPostgresCollector(target domain.Target, _ Deps) (Collector, error) {
	if target.DSN == "" {
		return nil, fmt.Errorf("target %q: dsn is required for postgres targets", target.Name)
	}

	db, err := sql.Open("pgx", target.DSN)
	if err != nil {
		return nil, fmt.Errorf("target %q: open postgres: %w", target.Name, err)
	}
	// One poll at a time per target; no need for a larger pool.
	db.SetMaxOpenConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	c := &PostgresCollector{
		target: target,
		db:     db,
		cache:  querycache.New(),
	}
	c.runQuery = c.runSubQuery
	return c, nil
}

func (c *PostgresCollector) Target() domain.Target { return c.target }

func (c *PostgresCollector) Collect(ctx context.Context) (*Result, error) {
	var version string
	if err := c.db.QueryRowContext(ctx, "SHOW server_version").Scan(&version); err != nil {
		return nil, fmt.Errorf("connect failed: %w", err)
	}

	var uptime int64
	if err := c.db.QueryRowContext(ctx,
		"SELECT EXTRACT(EPOCH FROM (now() - pg_postmaster_start_time()))::bigint",
	).Scan(&uptime); err != nil {
		return nil, fmt.Errorf("uptime query: %w", err)
	}

	var samples []domain.MetricSample

	if c.target.SystemStats {
		stats, err := c.systemStats(ctx)
		if err != nil {
			return nil, err
		}
		samples = append(samples, stats...)
	}

	samples = append(samples, c.subQuerySamples(ctx)...)

	return &Result{
		Version:       version,
		UptimeSeconds: uptime,
		Samples:       samples,
	}, nil
}

// subQuerySamples evaluates every custom query through the cache, each with
// its own TTL. A failing query degrades to its own error entry without
// touching the successful ones, so the result always carries one sample per
// configured query.
func (c *PostgresCollector) subQuerySamples(ctx context.Context) []domain.MetricSample {
	samples := make([]domain.MetricSample, 0, len(c.target.SubQueries))
	for _, q := range c.target.SubQueries {
		q := q
		samples = append(samples, c.cache.GetOrCompute(q.Label, q.TTL, func() (domain.MetricSample, error) {
			return c.runQuery(ctx, q)
		}))
	}
	return samples
}

func (c *PostgresCollector) systemStats(ctx context.Context) ([]domain.MetricSample, error) {
	var (
		backends             int64
		commits, rollbacks   int64
		blksRead, blksHit    int64
		deadlocks, tempFiles int64
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT numbackends, xact_commit, xact_rollback,
		       blks_read, blks_hit, deadlocks, temp_files
		FROM pg_stat_database
		WHERE datname = current_database()`,
	).Scan(&backends, &commits, &rollbacks, &blksRead, &blksHit, &deadlocks, &tempFiles)
	if err != nil {
		return nil, fmt.Errorf("pg_stat_database: %w", err)
	}

	samples := []domain.MetricSample{
		{
			Key:       "active_connections",
			Label:     "Active Connections",
			Value:     domain.Number(float64(backends)),
			Unit:      "conns",
			WarnAbove: domain.Threshold(50),
		},
		{
			Key:   "transactions_committed",
			Label: "Txn Committed",
			Value: domain.Number(float64(commits)),
			Unit:  "count",
		},
		{
			Key:       "transactions_rolled_back",
			Label:     "Txn Rolled Back",
			Value:     domain.Number(float64(rollbacks)),
			Unit:      "count",
			WarnAbove: domain.Threshold(100),
		},
	}

	// Buffer cache hit rate is derived; omitted entirely on an idle
	// database rather than reported as zero.
	if rate, ok := domain.Percent(float64(blksHit), float64(blksHit+blksRead), 2); ok {
		samples = append(samples, domain.MetricSample{
			Key:       "cache_hit_rate",
			Label:     "Cache Hit Rate",
			Value:     domain.Number(rate),
			Unit:      "%",
			WarnBelow: domain.Threshold(99),
		})
	}

	samples = append(samples,
		domain.MetricSample{
			Key:       "deadlocks",
			Label:     "Deadlocks",
			Value:     domain.Number(float64(deadlocks)),
			Unit:      "count",
			WarnAbove: domain.Threshold(0),
		},
		domain.MetricSample{
			Key:       "temp_files",
			Label:     "Temp Files",
			Value:     domain.Number(float64(tempFiles)),
			Unit:      "count",
			WarnAbove: domain.Threshold(100),
		},
	)

	var dbSize int64
	if err := c.db.QueryRowContext(ctx,
		"SELECT pg_database_size(current_database())",
	).Scan(&dbSize); err != nil {
		return nil, fmt.Errorf("database size: %w", err)
	}
	samples = append(samples, domain.MetricSample{
		Key:   "db_size_mb",
		Label: "Database Size",
		Value: domain.Number(math.Round(float64(dbSize)/bytesPerMB*10) / 10),
		Unit:  "MB",
	})

	return samples, nil
}

// runSubQuery executes one custom query and converts the first column of
// its first row into a metric sample.
func (c *PostgresCollector) runSubQuery(ctx context.Context, q domain.SubQuery) (domain.MetricSample, error) {
	var raw any
	if err := c.db.QueryRowContext(ctx, q.SQL).Scan(&raw); err != nil {
		return domain.MetricSample{}, err
	}

	value, err := scanValue(raw)
	if err != nil {
		return domain.MetricSample{}, err
	}

	return domain.MetricSample{
		Key:       domain.SlugKey(q.Label),
		Label:     q.Label,
		Value:     value,
		Unit:      "count",
		Color:     q.Color,
		WarnAbove: q.WarnAbove,
		WarnBelow: q.WarnBelow,
	}, nil
}

// scanValue converts a database/sql scan result into a metric value.
func scanValue(raw any) (domain.MetricValue, error) {
	switch v := raw.(type) {
	case int64:
		return domain.Number(float64(v)), nil
	case float64:
		return domain.Number(v), nil
	case bool:
		return domain.Text(fmt.Sprintf("%t", v)), nil
	case string:
		return domain.Text(v), nil
	case []byte:
		return domain.Text(string(v)), nil
	case time.Time:
		return domain.Text(v.Format(time.RFC3339)), nil
	case nil:
		return domain.MetricValue{}, fmt.Errorf("query returned NULL")
	default:
		return domain.MetricValue{}, fmt.Errorf("unsupported value type %T", raw)
	}
}
