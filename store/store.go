// Package store persists readings as append-only rows. The destination is a
// container (a workbook directory, a database file) holding a named table
// whose header/schema is bootstrapped idempotently: locate-or-create never
// duplicates, and appends never touch existing rows.
package store

import (
	"context"
	"fmt"

	"github.com/minsoo-dev/libcrowd/models"
	"github.com/minsoo-dev/libcrowd/result"
)

// Header is the fixed table header, present exactly once before any append.
var Header = []string{"Timestamp", "Floor", "Location", "Status"}

// Store is the interface all persistence backends implement.
type Store interface {
	AppendReadings(ctx context.Context, readings []*models.Reading) error
	Validate() error
	Close() error
}

// Queryable is implemented by backends that can read persisted rows back,
// for the report layer.
type Queryable interface {
	QueryReadings(ctx context.Context) ([]*models.Reading, error)
}

// ErrPersistence names the backend sub-step that failed.
type ErrPersistence struct {
	Step string // "locate container", "locate table", "append rows", "query rows"
	Err  error
}

func (e ErrPersistence) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Step, e.Err)
}

func (e ErrPersistence) Unwrap() error {
	return e.Err
}

// SaveResult bridges the extractor's result into persistence. An upstream
// Err propagates unchanged with nothing written; Ok with zero readings
// succeeds trivially; otherwise all readings are appended as one block. The
// returned value is the number of rows written.
func SaveResult(ctx context.Context, s Store, r result.Result[[]*models.Reading]) result.Result[int] {
	readings, err := r.Unpack()
	if err != nil {
		return result.Err[int](err)
	}
	if len(readings) == 0 {
		return result.Ok(0)
	}
	if err := s.AppendReadings(ctx, readings); err != nil {
		return result.Err[int](err)
	}
	return result.Ok(len(readings))
}

// MultiStore fans every append out to several backends.
type MultiStore struct {
	stores []Store
}

// NewMultiStore bundles backends behind the Store interface.
func NewMultiStore(stores ...Store) *MultiStore {
	return &MultiStore{stores: stores}
}

// AppendReadings writes to every backend, stopping at the first failure.
func (m *MultiStore) AppendReadings(ctx context.Context, readings []*models.Reading) error {
	for _, s := range m.stores {
		if err := s.AppendReadings(ctx, readings); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates every backend.
func (m *MultiStore) Validate() error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation errors: %v", errs)
	}
	return nil
}

// Close closes every backend, reporting all failures.
func (m *MultiStore) Close() error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors: %v", errs)
	}
	return nil
}
