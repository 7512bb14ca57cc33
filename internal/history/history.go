package history

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is one append-only history record: matcher runs, what-if scenarios,
// answered questions.
type Event struct {
	ID      string          `json:"id"`
	TS      time.Time       `json:"ts"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Log is the event sink and temporal query source used by analytics.
type Log interface {
	Append(ctx context.Context, eventType string, payload any) error
	Read(ctx context.Context, limit int) ([]Event, error)
}

// FileLog appends events to a JSONL file, one JSON object per line.
// Unparsable lines are skipped on read rather than failing the query.
type FileLog struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewFileLog creates a JSONL-backed event log.
func NewFileLog(path string, logger *zap.Logger) *FileLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileLog{path: path, logger: logger}
}

// Append writes one event line.
func (l *FileLog) Append(ctx context.Context, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	rec, err := json.Marshal(Event{
		ID:      uuid.New().String(),
		TS:      time.Now().UTC(),
		Type:    eventType,
		Payload: raw,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open history %s: %w", l.path, err)
	}
	defer f.Close()
	if _, err := f.Write(append(rec, '\n')); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// Read returns the most recent events, oldest first.
func (l *FileLog) Read(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 200
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", l.path, err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			l.logger.Debug("skipping malformed history line", zap.Error(err))
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history %s: %w", l.path, err)
	}
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}
