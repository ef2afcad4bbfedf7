// Package models defines data structures for the collector.
package models

import "time"

// TimestampLayout is the wall-clock format used for readings and archived
// page filenames. All timestamps are rendered in the operating timezone.
const TimestampLayout = "2006-01-02_15-04-05"

// Reading is one (floor, location, status) observation at a point in time.
type Reading struct {
	Timestamp   string `csv:"timestamp" json:"timestamp"`
	Floor       string `csv:"floor" json:"floor"`
	Location    string `csv:"location" json:"location"`
	Status      string `csv:"status" json:"status"`
	StatusLevel int    `csv:"status_level" json:"status_level"`
}

// Key identifies a reading for de-duplication purposes.
func (r *Reading) Key() string {
	return r.Timestamp + "|" + r.Floor + "|" + r.Location
}

// FetchResult is the raw outcome of one page fetch. It is transient: the
// validator and extractor consume it immediately and it is never persisted
// as-is (the archival variant writes RawContent to a file instead).
type FetchResult struct {
	Timestamp  string
	RawContent string
	StatusCode int
}

// RunReport holds the terminal outcome of one collector invocation.
type RunReport struct {
	StartTime    time.Time
	EndTime      time.Time
	Outcome      string // "ok", "skipped", or the error category
	Err          error
	StatusCode   int
	ReadingCount int
	RowsAppended int
	Duplicates   int
}
