package journal

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder appends records to a single SQLite table. Useful when
// the journal feeds dashboards that are awkward to point at CSV files.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so external readers don't block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS trade_events (
		id          TEXT PRIMARY KEY,
		timestamp   INTEGER NOT NULL,
		symbol      TEXT NOT NULL,
		event       TEXT NOT NULL,
		ticket      INTEGER,
		direction   TEXT,
		volume      REAL,
		price       REAL,
		stop_loss   REAL,
		take_profit REAL,
		profit      REAL,
		note        TEXT
	)`)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`CREATE INDEX IF NOT EXISTS idx_trade_events_ts ON trade_events(timestamp)`)
	return err
}

// Append inserts one record.
func (r *SQLiteRecorder) Append(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trade_events
		(id, timestamp, symbol, event, ticket, direction, volume, price, stop_loss, take_profit, profit, note)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.Timestamp.Unix(), rec.Symbol, string(rec.Kind), rec.Ticket,
		rec.Direction, rec.Volume, rec.Price, rec.StopLoss, rec.TakeProfit,
		rec.Profit, rec.Note,
	)
	return err
}

// Close closes the underlying database.
func (r *SQLiteRecorder) Close() error { return r.db.Close() }

var _ Recorder = (*SQLiteRecorder)(nil)
