package notify

import (
	"sync"

	"github.com/rs/zerolog"
)

// Notifier delivers operator alerts. Delivery is fire-and-forget:
// implementations log their own failures and never surface them to the
// trading path.
type Notifier interface {
	Notify(subject, body string)
}

// Noop drops every notification.
type Noop struct{}

func (Noop) Notify(string, string) {}

// Capture records notifications in memory for tests.
type Capture struct {
	mu       sync.Mutex
	Subjects []string
	Bodies   []string
}

func (c *Capture) Notify(subject, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Subjects = append(c.Subjects, subject)
	c.Bodies = append(c.Bodies, body)
}

// Count returns how many notifications were captured.
func (c *Capture) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Subjects)
}

// Logging wraps a notifier and mirrors every alert into the log, so the
// operator audit trail survives even when mail delivery is down.
type Logging struct {
	next   Notifier
	logger zerolog.Logger
}

// NewLogging creates the logging decorator. next may be nil.
func NewLogging(next Notifier, logger zerolog.Logger) *Logging {
	return &Logging{next: next, logger: logger.With().Str("component", "notify").Logger()}
}

func (l *Logging) Notify(subject, body string) {
	l.logger.Info().Str("subject", subject).Msg("alert")
	if l.next != nil {
		l.next.Notify(subject, body)
	}
}

var (
	_ Notifier = Noop{}
	_ Notifier = (*Capture)(nil)
	_ Notifier = (*Logging)(nil)
)
