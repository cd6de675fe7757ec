package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func TestCSVRecorderAppend(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewCSVRecorder(dir)
	if err != nil {
		t.Fatalf("NewCSVRecorder() error: %v", err)
	}
	defer rec.Close()

	open := NewRecord(EventOpen, "EURUSD", 42)
	open.Direction = "BUY"
	open.Volume = 0.5
	open.Price = 1.08421
	if err := rec.Append(open); err != nil {
		t.Fatalf("Append(open) error: %v", err)
	}

	second := NewRecord(EventOpen, "GBPUSD", 43)
	second.Direction = "SELL"
	if err := rec.Append(second); err != nil {
		t.Fatalf("Append(second) error: %v", err)
	}

	closeRec := NewRecord(EventClose, "EURUSD", 42)
	closeRec.Profit = 12.5
	if err := rec.Append(closeRec); err != nil {
		t.Fatalf("Append(close) error: %v", err)
	}

	rows := readCSV(t, filepath.Join(dir, "trades.csv"))
	// Header plus two opens; the header must not repeat on append.
	if len(rows) != 3 {
		t.Fatalf("trades.csv rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "id" {
		t.Errorf("first row = %v, want the header", rows[0])
	}
	if rows[1][2] != "EURUSD" || rows[1][5] != "BUY" {
		t.Errorf("open row = %v", rows[1])
	}

	closed := readCSV(t, filepath.Join(dir, "closed.csv"))
	if len(closed) != 2 {
		t.Fatalf("closed.csv rows = %d, want 2", len(closed))
	}
	if closed[1][10] != "12.5" {
		t.Errorf("profit column = %q, want \"12.5\"", closed[1][10])
	}
}

func TestCSVRecorderUnknownKind(t *testing.T) {
	rec, err := NewCSVRecorder(t.TempDir())
	if err != nil {
		t.Fatalf("NewCSVRecorder() error: %v", err)
	}
	if err := rec.Append(Record{Kind: "BOGUS"}); err == nil {
		t.Error("Append(unknown kind) = nil, want an error")
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}
