package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// File names per event kind, one CSV per lifecycle stage.
var csvFiles = map[EventKind]string{
	EventOpen:   "trades.csv",
	EventUpdate: "positions.csv",
	EventClose:  "closed.csv",
}

var csvHeader = []string{
	"id", "timestamp", "symbol", "event", "ticket", "direction",
	"volume", "price", "stop_loss", "take_profit", "profit", "note",
}

// CSVRecorder appends records to per-kind CSV files in a directory,
// writing the header once when a file is first created.
type CSVRecorder struct {
	dir string
	mu  sync.Mutex
}

// NewCSVRecorder creates the journal directory if needed.
func NewCSVRecorder(dir string) (*CSVRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	return &CSVRecorder{dir: dir}, nil
}

// Append writes one record to the CSV file for its event kind.
func (r *CSVRecorder) Append(rec Record) error {
	name, ok := csvFiles[rec.Kind]
	if !ok {
		return fmt.Errorf("unknown event kind %q", rec.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := filepath.Join(r.dir, name)
	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	row := []string{
		rec.ID,
		rec.Timestamp.Format(time.RFC3339),
		rec.Symbol,
		string(rec.Kind),
		strconv.FormatInt(rec.Ticket, 10),
		rec.Direction,
		formatFloat(rec.Volume),
		formatFloat(rec.Price),
		formatFloat(rec.StopLoss),
		formatFloat(rec.TakeProfit),
		formatFloat(rec.Profit),
		rec.Note,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	w.Flush()
	return w.Error()
}

// Close is a no-op; files are opened per append.
func (r *CSVRecorder) Close() error { return nil }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var _ Recorder = (*CSVRecorder)(nil)
