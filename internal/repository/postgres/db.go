// Package postgres provides the PostgreSQL backend.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/prn-tf/recipebook/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// applicationName tags RecipeBook sessions in pg_stat_activity.
const applicationName = "recipebook"

// DB is the PostgreSQL backend handle shared by the repositories.
type DB struct {
	Pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDB opens the pool described by cfg and pings it.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	logger = logger.With().Str("component", "postgres").Logger()

	poolConfig, err := poolConfigFor(cfg)
	if err != nil {
		return nil, err
	}
	if tracer := newQueryTracer(logger, cfg.SlowQueryThreshold); tracer != nil {
		poolConfig.ConnConfig.Tracer = tracer
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int32("max_conns", poolConfig.MaxConns).
		Int32("min_conns", poolConfig.MinConns).
		Dur("slow_query_threshold", cfg.SlowQueryThreshold).
		Msg("connected to PostgreSQL")

	return &DB{Pool: pool, logger: logger}, nil
}

// poolConfigFor maps the database settings onto a pgx pool configuration.
// Unset sizes keep the pgx defaults; MinConns never exceeds MaxConns.
func poolConfigFor(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = min(int32(cfg.MaxIdleConns), poolConfig.MaxConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return poolConfig, nil
}

// Close closes the pool.
func (db *DB) Close() error {
	db.Pool.Close()
	db.logger.Info().Msg("postgres pool closed")
	return nil
}

// Ping checks the database connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// WithTx runs fn in a transaction, committing when it returns nil.
func (db *DB) WithTx(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := db.Pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			db.logger.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// queryTracer logs statements that fail or exceed the slow threshold, and
// every statement when the logger is at debug level. Missing rows and unique
// violations are mapped to domain errors by the repositories and not logged.
type queryTracer struct {
	logger zerolog.Logger
	slow   time.Duration
	debug  bool
}

// newQueryTracer returns nil when there would be nothing to log.
func newQueryTracer(logger zerolog.Logger, slow time.Duration) *queryTracer {
	debug := logger.GetLevel() <= zerolog.DebugLevel
	if !debug && slow <= 0 {
		return nil
	}
	return &queryTracer{logger: logger, slow: slow, debug: debug}
}

type traceQueryCtxKey struct{}

type traceQuery struct {
	sql   string
	start time.Time
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceQueryCtxKey{}, traceQuery{sql: data.SQL, start: time.Now()})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	q, ok := ctx.Value(traceQueryCtxKey{}).(traceQuery)
	if !ok {
		return
	}
	elapsed := time.Since(q.start)
	slow := t.slow > 0 && elapsed >= t.slow

	var event *zerolog.Event
	switch {
	case data.Err != nil && !isNoRows(data.Err) && !isUniqueViolation(data.Err):
		event = t.logger.Warn().Err(data.Err)
	case slow:
		event = t.logger.Warn()
	case t.debug:
		event = t.logger.Debug()
	default:
		return
	}

	event.
		Str("table", statementTable(q.sql)).
		Str("command", data.CommandTag.String()).
		Int64("rows", data.CommandTag.RowsAffected()).
		Dur("duration", elapsed).
		Bool("slow", slow).
		Str("sql", compactSQL(q.sql)).
		Msg("postgres statement")
}

// statementTable names the first recipebook table a statement touches, or ""
// when it touches none of them.
func statementTable(sql string) string {
	lower := strings.ToLower(sql)
	best, at := "", -1
	for _, table := range []string{"recipes", "comments", "share_grants", "shared_recipes", "users", "schema_migrations"} {
		i := strings.Index(lower, table)
		if i >= 0 && (at < 0 || i < at) {
			best, at = table, i
		}
	}
	return best
}

// compactSQL folds whitespace so multi-line statements log on one line.
func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

// Querier is satisfied by both the pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// MigrationVersion returns the highest applied migration, 0 if none.
func (db *DB) MigrationVersion(ctx context.Context) (int, error) {
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}
	var v int
	if err := db.Pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get current migration version: %w", err)
	}
	return v, nil
}

// Migrate applies every embedded migration newer than the current version.
// Each migration runs in its own transaction.
func (db *DB) Migrate(ctx context.Context) error {
	current, err := db.MigrationVersion(ctx)
	if err != nil {
		return err
	}
	db.logger.Info().Int("current_version", current).Msg("checking migrations")

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	type migration struct {
		version int
		name    string
	}
	var pending []migration
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(e.Name(), "_")
		v, err := strconv.Atoi(prefix)
		if err != nil {
			return fmt.Errorf("bad migration file name %q: %w", e.Name(), err)
		}
		if v > current {
			pending = append(pending, migration{version: v, name: e.Name()})
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].version < pending[j].version })

	for _, m := range pending {
		body, err := migrationsFS.ReadFile("migrations/" + m.name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", m.name, err)
		}
		err = db.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(body)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}
		db.logger.Info().Int("version", m.version).Str("file", m.name).Msg("applied migration")
	}
	return nil
}
