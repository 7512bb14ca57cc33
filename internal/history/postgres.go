package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresLog stores history events in PostgreSQL.
type PostgresLog struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresLog creates a PostgresLog with a pgx connection pool.
func NewPostgresLog(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresLog, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("PostgreSQL history connected")
	return &PostgresLog{db: pool, logger: logger}, nil
}

// Migrate reads and executes all .up.sql files from the migrations directory.
func (l *PostgresLog) Migrate(ctx context.Context, migrationsDir string) error {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(migrationsDir, f))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := l.db.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
		l.logger.Info("Migration applied", zap.String("file", f))
	}
	return nil
}

// Append inserts one event row.
func (l *PostgresLog) Append(ctx context.Context, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	_, err = l.db.Exec(ctx, `
		INSERT INTO events (id, ts, event_type, payload)
		VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), time.Now().UTC(), eventType, raw,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Read returns the most recent events, oldest first.
func (l *PostgresLog) Read(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := l.db.Query(ctx, `
		SELECT id, ts, event_type, payload
		FROM (
			SELECT id, ts, event_type, payload
			FROM events ORDER BY ts DESC LIMIT $1
		) recent
		ORDER BY ts ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.TS, &ev.Type, &ev.Payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close shuts down the connection pool.
func (l *PostgresLog) Close() {
	l.db.Close()
}
