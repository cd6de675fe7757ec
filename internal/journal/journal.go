package journal

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies a journal record.
type EventKind string

const (
	EventOpen   EventKind = "OPEN"
	EventUpdate EventKind = "UPDATE"
	EventClose  EventKind = "CLOSE"
)

// Record is one append-only journal entry for a trade event. The journal
// has no read path; records exist for the operator's audit trail.
type Record struct {
	ID         string
	Timestamp  time.Time
	Symbol     string
	Kind       EventKind
	Ticket     int64
	Direction  string
	Volume     float64
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Profit     float64
	Note       string
}

// NewRecord stamps a record with an ID and the current time.
func NewRecord(kind EventKind, symbol string, ticket int64) Record {
	return Record{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Symbol:    symbol,
		Kind:      kind,
		Ticket:    ticket,
	}
}

// Recorder is the append-only record sink.
type Recorder interface {
	Append(rec Record) error
	Close() error
}

// Noop discards every record.
type Noop struct{}

func (Noop) Append(Record) error { return nil }
func (Noop) Close() error        { return nil }

var _ Recorder = Noop{}
