package notify

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestCapture(t *testing.T) {
	c := &Capture{}
	c.Notify("subject one", "body one")
	c.Notify("subject two", "body two")

	if c.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", c.Count())
	}
	if c.Subjects[0] != "subject one" || c.Bodies[1] != "body two" {
		t.Errorf("captured = %v / %v", c.Subjects, c.Bodies)
	}
}

func TestLoggingForwards(t *testing.T) {
	next := &Capture{}
	l := NewLogging(next, zerolog.Nop())

	l.Notify("alert", "details")
	if next.Count() != 1 {
		t.Errorf("forwarded = %d, want 1", next.Count())
	}
}

func TestLoggingNilNext(t *testing.T) {
	l := NewLogging(nil, zerolog.Nop())
	l.Notify("alert", "details") // must not panic
}
