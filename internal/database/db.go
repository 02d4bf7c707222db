package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jokes-web/internal/config"
	"jokes-web/internal/metrics"
	"jokes-web/internal/models"
	"jokes-web/migrations"
	"jokes-web/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

var (
	ErrJokeNotFound = errors.New("joke not found")
)

type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to database at %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

type DB struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConnections)
	}
	if cfg.MinConnections > 0 {
		poolConfig.MinConns = int32(cfg.MinConnections)
	}

	redacted := redactURL(poolConfig)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, &ConnectionError{URL: redacted, Err: err}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &ConnectionError{URL: redacted, Err: err}
	}

	return &DB{Pool: pool}, nil
}

func redactURL(cfg *pgxpool.Config) string {
	cc := cfg.ConnConfig
	return fmt.Sprintf("%s:%d/%s", cc.Host, cc.Port, cc.Database)
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Migrate applies the embedded goose migrations through the pool.
func (db *DB) Migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

type JokeRepository struct {
	db *DB
}

func NewJokeRepository(db *DB) *JokeRepository {
	return &JokeRepository{db: db}
}

func observe(op string, start time.Time, err error) {
	metrics.StoreOperationsTotal.WithLabelValues(op, metrics.Result(err)).Inc()
	if err != nil && !errors.Is(err, ErrJokeNotFound) {
		logger.Error("Joke store operation failed",
			logger.String("operation", op),
			logger.Duration("elapsed", time.Since(start)),
			logger.Err(err),
		)
	}
}

// Create inserts the joke and writes the generated id back into it.
func (r *JokeRepository) Create(ctx context.Context, joke *models.Joke) (err error) {
	start := time.Now()
	defer func() { observe("create", start, err) }()

	query := `
		INSERT INTO jokes (type, setup, punchline)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err = r.db.Pool.QueryRow(ctx, query, joke.Type, joke.Setup, joke.Punchline).Scan(&joke.ID); err != nil {
		err = fmt.Errorf("failed to insert joke: %w", err)
	}
	return err
}

func (r *JokeRepository) List(ctx context.Context) (jokes []models.Joke, err error) {
	start := time.Now()
	defer func() { observe("list", start, err) }()

	rows, err := r.db.Pool.Query(ctx, `SELECT id, type, setup, punchline FROM jokes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jokes: %w", err)
	}

	jokes, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Joke, error) {
		return scanJoke(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan jokes: %w", err)
	}
	return jokes, nil
}

func (r *JokeRepository) GetByID(ctx context.Context, id int64) (joke *models.Joke, err error) {
	start := time.Now()
	defer func() { observe("get", start, err) }()

	row := r.db.Pool.QueryRow(ctx, `SELECT id, type, setup, punchline FROM jokes WHERE id = $1`, id)
	j, err := scanJoke(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJokeNotFound
		}
		return nil, fmt.Errorf("failed to get joke %d: %w", id, err)
	}
	return &j, nil
}

// Update replaces type, setup and punchline of the row with the given id.
// No row is created when the id does not exist.
func (r *JokeRepository) Update(ctx context.Context, id int64, joke models.Joke) (err error) {
	start := time.Now()
	defer func() { observe("update", start, err) }()

	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE jokes SET type = $1, setup = $2, punchline = $3 WHERE id = $4`,
		joke.Type, joke.Setup, joke.Punchline, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update joke %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJokeNotFound
	}
	return nil
}

func (r *JokeRepository) Delete(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { observe("delete", start, err) }()

	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM jokes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete joke %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJokeNotFound
	}
	return nil
}

func (r *JokeRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM jokes").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanJoke tolerates NULL text columns; the schema does not forbid them.
func scanJoke(row rowScanner) (models.Joke, error) {
	var (
		j                     models.Joke
		typ, setup, punchline *string
	)
	if err := row.Scan(&j.ID, &typ, &setup, &punchline); err != nil {
		return models.Joke{}, err
	}
	j.Type = deref(typ)
	j.Setup = deref(setup)
	j.Punchline = deref(punchline)
	return j, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
