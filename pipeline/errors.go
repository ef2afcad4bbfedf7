package pipeline

import (
	"errors"

	"github.com/minsoo-dev/libcrowd/extract"
	"github.com/minsoo-dev/libcrowd/fetch"
	"github.com/minsoo-dev/libcrowd/gate"
	"github.com/minsoo-dev/libcrowd/store"
)

// OutcomeSkipped marks an invocation rejected by the operating-hours gate.
// It is an expected outcome, not a fault.
const OutcomeSkipped = "skipped"

// OutcomeOK marks a run that persisted (or trivially had nothing to
// persist).
const OutcomeOK = "ok"

// outcomeLabel buckets a terminal error into the run taxonomy: config,
// window, transport-level, validation, extraction, persistence, other.
func outcomeLabel(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var window gate.WindowError
	if errors.As(err, &window) {
		return OutcomeSkipped
	}
	var config fetch.ErrConfig
	if errors.As(err, &config) {
		return "config"
	}
	if errors.Is(err, extract.ErrNoContent) || errors.Is(err, extract.ErrNoData) {
		return "extraction"
	}
	var persistence store.ErrPersistence
	if errors.As(err, &persistence) {
		return "persistence"
	}
	if label := fetch.ErrorTypeLabel(err); label != "other" && label != "unknown" {
		return label
	}
	return "other"
}
