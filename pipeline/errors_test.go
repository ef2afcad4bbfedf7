package pipeline

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/minsoo-dev/libcrowd/extract"
	"github.com/minsoo-dev/libcrowd/fetch"
	"github.com/minsoo-dev/libcrowd/gate"
	"github.com/minsoo-dev/libcrowd/store"
)

func TestOutcomeLabel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: "ok"},
		{name: "window", err: gate.WindowError{Weekday: time.Sunday, Hour: 22}, expected: "skipped"},
		{name: "config", err: fetch.ErrConfig{Err: errors.New("missing key")}, expected: "config"},
		{name: "timeout", err: fetch.ErrTimeout{Err: errors.New("deadline")}, expected: "timeout"},
		{name: "connection", err: fetch.ErrConnection{Err: errors.New("refused")}, expected: "connection"},
		{name: "status", err: fetch.ErrStatus{StatusCode: 503}, expected: "validation"},
		{name: "no content", err: extract.ErrNoContent, expected: "extraction"},
		{name: "no data", err: fmt.Errorf("extract: %w", extract.ErrNoData), expected: "extraction"},
		{name: "persistence", err: store.ErrPersistence{Step: "append rows", Err: errors.New("disk")}, expected: "persistence"},
		{name: "other", err: errors.New("unclassified"), expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outcomeLabel(tt.err); got != tt.expected {
				t.Fatalf("outcomeLabel(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}
