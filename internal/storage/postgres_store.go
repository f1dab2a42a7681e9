package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c *Credentials) dsn() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslMode)
}

// PostgresStore keeps entries in the session_entries table. Entries not
// written for longer than ttl are purged by a background loop.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewPostgresStore(cred *Credentials, ttl time.Duration) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cred.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	log.Info().Str("host", cred.Host).Str("db", cred.DBName).Msg("connected to postgres")
	return &PostgresStore{db: db, ttl: ttl, stop: make(chan struct{})}, nil
}

// StartPurge removes expired entries every interval until Close.
func (p *PostgresStore) StartPurge(interval time.Duration) {
	if p.ttl <= 0 || interval <= 0 {
		return
	}
	p.wg.Add(1)
	go p.purgeLoop(interval)
}

func (p *PostgresStore) purgeLoop(interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			n, err := p.PurgeExpired(ctx)
			cancel()
			if err != nil {
				log.Warn().Err(err).Msg("failed to purge expired session entries")
				continue
			}
			if n > 0 {
				log.Debug().Int64("entries", n).Msg("purged expired session entries")
			}
		case <-p.stop:
			return
		}
	}
}

// PurgeExpired deletes entries last written more than ttl ago.
func (p *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	if p.ttl <= 0 {
		return 0, nil
	}
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM session_entries WHERE updated_at < NOW() - make_interval(secs => $1)`,
		p.ttl.Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to purge entries: %w", err)
	}
	return res.RowsAffected()
}

// RunMigrations applies the embedded schema migrations.
func (p *PostgresStore) RunMigrations() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	driver, err := postgres.WithInstance(p.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, session, key string) ([]byte, error) {
	var value []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM session_entries WHERE session_id = $1 AND key = $2`,
		session, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return value, nil
}

func (p *PostgresStore) Set(ctx context.Context, session, key string, value []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO session_entries (session_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (session_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		session, key, value)
	if err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, session, key string) error {
	if _, err := p.db.ExecContext(ctx,
		`DELETE FROM session_entries WHERE session_id = $1 AND key = $2`, session, key); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

func (p *PostgresStore) DeleteSession(ctx context.Context, session string) error {
	if _, err := p.db.ExecContext(ctx,
		`DELETE FROM session_entries WHERE session_id = $1`, session); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
	return p.db.Close()
}
